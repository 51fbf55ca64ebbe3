// Package engine implements the session lifecycle core: an owned in-memory
// view of rooms and sessions, a 1 Hz ticker that promotes session status
// from wall-clock comparisons, an at-most-once expiry alarm, and the
// idempotent start/extend/end commands.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hibikilabs/roomdesk/internal/audio"
	"github.com/hibikilabs/roomdesk/internal/domain/room"
	"github.com/hibikilabs/roomdesk/internal/domain/session"
	"github.com/hibikilabs/roomdesk/internal/feed"
	"github.com/hibikilabs/roomdesk/internal/repository"
)

// DefaultTickInterval drives status promotion once per second.
const DefaultTickInterval = time.Second

// Config wires the engine's collaborators.
type Config struct {
	Rooms     repository.RoomRepository
	Sessions  repository.SessionRepository
	History   repository.HistoryRepository
	Player    audio.Player
	Publisher feed.Publisher

	// Clock defaults to time.Now. Tests substitute a manual clock.
	Clock func() time.Time
	// TickInterval defaults to DefaultTickInterval.
	TickInterval time.Duration
	// Actor is the identity recorded on history rows when the caller
	// supplies none.
	Actor  string
	Logger *slog.Logger
}

// Engine owns the room -> session state store and all mutation paths into
// it: remote resync, tick-local promotion, and the session commands.
// Nothing outside the engine mutates the store directly; the change feed
// may only trigger a resync.
type Engine struct {
	mu       sync.Mutex
	rooms    map[string]room.Room
	sessions map[string]*session.Session // keyed by room ID
	alerts   map[string]*session.Alert   // keyed by room ID
	now      time.Time
	closed   bool

	// expiryWrites tracks session IDs whose remote expired write has been
	// issued: added before the write, removed only when the write fails so
	// the next tick retries, kept on success so the write happens at most
	// once per distinct expiry.
	expiryWrites map[string]struct{}

	roomsRepo    repository.RoomRepository
	sessionsRepo repository.SessionRepository
	historyRepo  repository.HistoryRepository

	alarm    *Alarm
	pub      feed.Publisher
	clock    func() time.Time
	interval time.Duration
	actor    string
	logger   *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates an engine. Run starts the ticker; the state store is empty
// until the first Resync.
func New(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Actor == "" {
		cfg.Actor = "operator"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Publisher == nil {
		cfg.Publisher = &feed.NoopPublisher{}
	}

	return &Engine{
		rooms:        make(map[string]room.Room),
		sessions:     make(map[string]*session.Session),
		alerts:       make(map[string]*session.Alert),
		expiryWrites: make(map[string]struct{}),
		now:          cfg.Clock(),
		roomsRepo:    cfg.Rooms,
		sessionsRepo: cfg.Sessions,
		historyRepo:  cfg.History,
		alarm:        NewAlarm(cfg.Player, cfg.Logger),
		pub:          cfg.Publisher,
		clock:        cfg.Clock,
		interval:     cfg.TickInterval,
		actor:        cfg.Actor,
		logger:       cfg.Logger,
		stop:         make(chan struct{}),
	}
}

// Run performs an initial resync and then drives Tick until the context is
// canceled or Close is called.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Resync(ctx); err != nil {
		return fmt.Errorf("initial resync: %w", err)
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stop:
			return nil
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Close detaches the ticker, silences the alarm, and drops local alert
// state. In-flight remote calls are not canceled; their results are
// ignored once the engine is closed.
func (e *Engine) Close() {
	e.stopOnce.Do(func() { close(e.stop) })

	e.mu.Lock()
	e.closed = true
	e.alerts = make(map[string]*session.Alert)
	e.mu.Unlock()

	e.alarm.SilenceAll()
}

// WatchFeed resyncs on every change notification until the context ends or
// the subscription closes. Payloads are opaque; only their arrival matters.
func (e *Engine) WatchFeed(ctx context.Context, sub feed.Subscriber) error {
	ch, cancel, err := sub.Subscribe("roomdesk.>")
	if err != nil {
		return fmt.Errorf("subscribing to change feed: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stop:
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			if err := e.Resync(ctx); err != nil {
				e.logger.Warn("resync after change notification failed", "error", err)
			}
		}
	}
}

// Resync replaces the local view with the remote snapshot, merged so that
// a tick-local status promotion is never clobbered by a snapshot that has
// not yet observed it. The merge is keyed by session identifier: for an
// unchanged end time the more advanced status wins; a changed end time
// means an extend landed remotely and the remote row wins wholesale.
func (e *Engine) Resync(ctx context.Context) error {
	rooms, err := e.roomsRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing rooms: %w", err)
	}
	sessions, err := e.sessionsRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		// Late result landing after teardown; drop it.
		return nil
	}

	e.rooms = make(map[string]room.Room, len(rooms))
	for _, rm := range rooms {
		e.rooms[rm.ID] = rm
	}

	merged := make(map[string]*session.Session, len(sessions))
	present := make(map[string]struct{}, len(sessions))
	for _, remote := range sessions {
		remote := remote
		present[remote.ID] = struct{}{}
		local, ok := e.sessions[remote.RoomID]
		if ok && local.ID == remote.ID && local.EndTime.Equal(remote.EndTime) &&
			session.MoreAdvanced(local.Status, remote.Status) {
			remote.Status = local.Status
			remote.UpdatedAt = local.UpdatedAt
		}
		merged[remote.RoomID] = &remote
	}
	e.sessions = merged

	// Alerts reference a specific (session, end time); drop any whose
	// subject vanished or was extended remotely, and stop its indication.
	for roomID, alert := range e.alerts {
		sess, ok := merged[roomID]
		if !ok || sess.ID != alert.Session.ID || !sess.EndTime.Equal(alert.Session.EndTime) {
			delete(e.alerts, roomID)
			e.alarm.Stop(roomID)
		}
	}

	for id := range e.expiryWrites {
		if _, ok := present[id]; !ok {
			delete(e.expiryWrites, id)
		}
	}

	return nil
}

// UserGesture forwards a user interaction to the alarm so a previously
// blocked playback attempt can retry.
func (e *Engine) UserGesture() {
	e.alarm.UserGesture()
}

// Rooms returns the rooms from the last snapshot, ordered by name.
func (e *Engine) Rooms() []room.Room {
	e.mu.Lock()
	defer e.mu.Unlock()

	rooms := make([]room.Room, 0, len(e.rooms))
	for _, rm := range e.rooms {
		rooms = append(rooms, rm)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}

// Sessions returns a copy of the room -> session map.
func (e *Engine) Sessions() map[string]session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]session.Session, len(e.sessions))
	for roomID, sess := range e.sessions {
		out[roomID] = *sess
	}
	return out
}

// SessionForRoom returns the session occupying a room, if any.
func (e *Engine) SessionForRoom(roomID string) (session.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.sessions[roomID]
	if !ok {
		return session.Session{}, false
	}
	return *sess, true
}

// ActiveAlerts returns a copy of the room -> alert map.
func (e *Engine) ActiveAlerts() map[string]session.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]session.Alert, len(e.alerts))
	for roomID, alert := range e.alerts {
		out[roomID] = *alert
	}
	return out
}

// Now returns the timestamp of the most recent tick.
func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *Engine) publish(ctx context.Context, topic string, change feed.Change) {
	if err := e.pub.Publish(ctx, topic, change); err != nil {
		e.logger.Warn("publishing change notification failed", "topic", topic, "error", err)
	}
}
