package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hibikilabs/roomdesk/internal/audio"
	"github.com/hibikilabs/roomdesk/internal/domain/session"
)

// Alarm fires the expiry indication at most once per distinct expiry
// event. Firing is keyed by (room, session, end time): extending a session
// changes the end time and therefore produces a fresh key, so the alarm
// can fire again for the new expiry.
type Alarm struct {
	mu            sync.Mutex
	fired         map[string]struct{}
	pendingUnlock bool
	player        audio.Player
	logger        *slog.Logger
}

// NewAlarm creates an alarm deduper driving the given player.
func NewAlarm(player audio.Player, logger *slog.Logger) *Alarm {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alarm{
		fired:  make(map[string]struct{}),
		player: player,
		logger: logger,
	}
}

func alarmKey(roomID string, sess session.Session) string {
	return fmt.Sprintf("%s|%s|%d", roomID, sess.ID, sess.EndTime.Unix())
}

// Notify fires the alarm for an expiry event unless its key already fired.
// A blocked playback attempt is remembered and retried on the next user
// gesture; the dedupe mark is set either way.
func (a *Alarm) Notify(roomID string, sess session.Session) {
	key := alarmKey(roomID, sess)

	a.mu.Lock()
	if _, done := a.fired[key]; done {
		a.mu.Unlock()
		return
	}
	a.fired[key] = struct{}{}
	a.mu.Unlock()

	a.play(roomID)
}

func (a *Alarm) play(roomID string) {
	err := a.player.TryPlay()
	if err == nil {
		return
	}
	if errors.Is(err, audio.ErrPlaybackBlocked) {
		a.mu.Lock()
		a.pendingUnlock = true
		a.mu.Unlock()
		a.logger.Info("alarm playback blocked, waiting for user gesture", "room", roomID)
		return
	}
	// Best-effort only: a failed indication is logged, never surfaced.
	a.logger.Warn("alarm playback failed", "room", roomID, "error", err)
}

// UserGesture retries a playback attempt that was previously blocked.
// The retry is one-shot: the pending flag clears whether or not the
// attempt succeeds this time.
func (a *Alarm) UserGesture() {
	a.mu.Lock()
	pending := a.pendingUnlock
	a.pendingUnlock = false
	a.mu.Unlock()

	if pending {
		a.play("")
	}
}

// Stop halts any playing indication for a room. The dedupe mark stays in
// place: replaying the same expiry requires a new end time via Reset.
func (a *Alarm) Stop(roomID string) {
	a.player.Stop()
}

// Reset clears every dedupe mark for a room and stops playback, allowing
// the alarm to fire again for the room's next expiry. Used by extend and
// by session teardown for the room.
func (a *Alarm) Reset(roomID string) {
	prefix := roomID + "|"

	a.mu.Lock()
	for key := range a.fired {
		if strings.HasPrefix(key, prefix) {
			delete(a.fired, key)
		}
	}
	a.mu.Unlock()

	a.player.Stop()
}

// SilenceAll clears all dedupe marks and stops playback. Used for global
// teardown such as operator logout.
func (a *Alarm) SilenceAll() {
	a.mu.Lock()
	a.fired = make(map[string]struct{})
	a.pendingUnlock = false
	a.mu.Unlock()

	a.player.Stop()
}
