package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hibikilabs/roomdesk/internal/audio"
	"github.com/hibikilabs/roomdesk/internal/config"
	"github.com/hibikilabs/roomdesk/internal/domain/room"
	"github.com/hibikilabs/roomdesk/internal/engine"
	"github.com/hibikilabs/roomdesk/internal/feed"
	"github.com/hibikilabs/roomdesk/internal/sqlite"
	"github.com/hibikilabs/roomdesk/internal/transport"
)

var rootCmd = &cobra.Command{
	Use:   "roomdesk <command>",
	Short: "Karaoke-room rental floor service",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the room console service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func main() {
	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("preparing database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	roomRepo := sqlite.NewRoomRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	historyRepo := sqlite.NewHistoryRepository(db)

	if err := seedRooms(context.Background(), roomRepo, cfg.Floor, logger); err != nil {
		return fmt.Errorf("seeding rooms: %w", err)
	}

	var publisher feed.Publisher = &feed.NoopPublisher{}
	var subscriber feed.Subscriber
	if cfg.Feed.URL != "" {
		pub, err := feed.NewNATSPublisher(cfg.Feed.URL)
		if err != nil {
			return fmt.Errorf("connecting feed publisher: %w", err)
		}
		defer pub.Close()
		publisher = pub

		sub, err := feed.NewNATSSubscriber(cfg.Feed.URL)
		if err != nil {
			return fmt.Errorf("connecting feed subscriber: %w", err)
		}
		defer sub.Close()
		subscriber = sub
	}

	eng := engine.New(engine.Config{
		Rooms:        roomRepo,
		Sessions:     sessionRepo,
		History:      historyRepo,
		Player:       audio.NewBellPlayer(os.Stdout),
		Publisher:    publisher,
		TickInterval: cfg.Engine.Tick,
		Actor:        cfg.Engine.Operator,
		Logger:       logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("engine stopped", "error", err)
		}
	}()
	if subscriber != nil {
		go func() {
			if err := eng.WatchFeed(ctx, subscriber); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("feed watcher stopped", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: transport.NewRouter(eng, historyRepo, logger),
	}

	go func() {
		<-stop
		logger.Info("shutting down")
		eng.Close()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("starting room console", "addr", addr, "tick", cfg.Engine.Tick.String())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// seedRooms bootstraps the floor when the rooms table is empty.
func seedRooms(ctx context.Context, repo *sqlite.RoomRepository, floor config.FloorConfig, logger *slog.Logger) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, seed := range floor.Rooms {
		rm := &room.Room{
			ID:       seed.ID,
			Name:     seed.Name,
			Capacity: seed.Capacity,
			Status:   room.StatusAvailable,
		}
		if err := repo.Create(ctx, rm); err != nil {
			return err
		}
	}
	logger.Info("seeded room floor", "rooms", len(floor.Rooms))
	return nil
}

func ensureDBDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
