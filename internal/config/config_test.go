package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "roomdesk.db", cfg.DB.Path)
	require.Equal(t, time.Second, cfg.Engine.Tick)
	require.Equal(t, "operator", cfg.Engine.Operator)
	require.Empty(t, cfg.Feed.URL)
	require.NotEmpty(t, cfg.Floor.Rooms)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ROOMDESK_SERVER_PORT", "9000")
	t.Setenv("ROOMDESK_DB_PATH", "/tmp/desk.db")
	t.Setenv("ROOMDESK_FEED_URL", "nats://localhost:4222")
	t.Setenv("ROOMDESK_TICK", "250ms")
	t.Setenv("ROOMDESK_OPERATOR", "night-shift")
	t.Setenv("ROOMDESK_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "/tmp/desk.db", cfg.DB.Path)
	require.Equal(t, "nats://localhost:4222", cfg.Feed.URL)
	require.Equal(t, 250*time.Millisecond, cfg.Engine.Tick)
	require.Equal(t, "night-shift", cfg.Engine.Operator)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("ROOMDESK_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadInvalidTick(t *testing.T) {
	t.Setenv("ROOMDESK_TICK", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
engine:
  tick: 2s
floor:
  rooms:
    - id: vip-1
      name: VIP Suite
      capacity: 15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("ROOMDESK_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 2*time.Second, cfg.Engine.Tick)
	require.Len(t, cfg.Floor.Rooms, 1)
	require.Equal(t, "VIP Suite", cfg.Floor.Rooms[0].Name)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o644))
	t.Setenv("ROOMDESK_CONFIG_PATH", path)
	t.Setenv("ROOMDESK_SERVER_PORT", "9191")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
}
