package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Feed   FeedConfig   `yaml:"feed"`
	Engine EngineConfig `yaml:"engine"`
	Floor  FloorConfig  `yaml:"floor"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// FeedConfig configures the change-notification feed. An empty URL
// disables publishing and the resync watcher.
type FeedConfig struct {
	URL string `yaml:"url"`
}

type EngineConfig struct {
	Tick     time.Duration `yaml:"tick"`
	Operator string        `yaml:"operator"`
}

// FloorConfig seeds the room floor when the store is empty at startup.
type FloorConfig struct {
	Rooms []RoomSeed `yaml:"rooms"`
}

type RoomSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "roomdesk.db",
		},
		Engine: EngineConfig{
			Tick:     time.Second,
			Operator: "operator",
		},
		Floor: FloorConfig{
			Rooms: []RoomSeed{
				{ID: "room-1", Name: "Room 1", Capacity: 4},
				{ID: "room-2", Name: "Room 2", Capacity: 4},
				{ID: "room-3", Name: "Room 3", Capacity: 6},
				{ID: "room-4", Name: "Room 4", Capacity: 8},
				{ID: "room-5", Name: "Room 5", Capacity: 12},
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("ROOMDESK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("ROOMDESK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("ROOMDESK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ROOMDESK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("ROOMDESK_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if feedURL := os.Getenv("ROOMDESK_FEED_URL"); feedURL != "" {
		cfg.Feed.URL = feedURL
	}
	if tickStr := os.Getenv("ROOMDESK_TICK"); tickStr != "" {
		tick, err := time.ParseDuration(tickStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ROOMDESK_TICK: %w", err)
		}
		cfg.Engine.Tick = tick
	}
	if operator := os.Getenv("ROOMDESK_OPERATOR"); operator != "" {
		cfg.Engine.Operator = operator
	}
	if level := os.Getenv("ROOMDESK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
