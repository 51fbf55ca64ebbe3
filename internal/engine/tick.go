package engine

import (
	"context"
	"errors"

	"github.com/hibikilabs/roomdesk/internal/domain/session"
	"github.com/hibikilabs/roomdesk/internal/feed"
	"github.com/hibikilabs/roomdesk/internal/repository"
)

// Tick advances the state store by one clock observation: scheduled
// sessions whose start time passed become ongoing (local only), sessions
// whose end time passed become expired, and the first tick observing an
// expiry creates the room's alert and fires the alarm. The remote expired
// write is issued at most once per session, guarded by the in-flight
// marker set.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	now := e.clock()
	e.now = now

	var writes []session.Session
	var fired []session.Session

	for roomID, sess := range e.sessions {
		if sess.Status == session.StatusScheduled && !now.Before(sess.StartTime) && now.Before(sess.EndTime) {
			sess.Status = session.StatusOngoing
			sess.UpdatedAt = now
		}

		if now.Before(sess.EndTime) {
			continue
		}

		if sess.Status != session.StatusExpired {
			sess.Status = session.StatusExpired
			sess.UpdatedAt = now
		}
		if _, inflight := e.expiryWrites[sess.ID]; !inflight {
			e.expiryWrites[sess.ID] = struct{}{}
			writes = append(writes, *sess)
		}
		if _, exists := e.alerts[roomID]; !exists {
			e.alerts[roomID] = &session.Alert{RoomID: roomID, Session: *sess, DetectedAt: now}
			fired = append(fired, *sess)
		}
	}
	e.mu.Unlock()

	for _, sess := range fired {
		e.alarm.Notify(sess.RoomID, sess)
	}
	for _, sess := range writes {
		e.writeExpired(ctx, sess)
	}
}

// writeExpired pushes the expired status to the remote store. On failure
// the in-flight marker is dropped so the next tick retries; there is no
// backoff or retry limit. On success the marker stays, preventing a second
// write for the same session until an extend or delete replaces it.
func (e *Engine) writeExpired(ctx context.Context, sess session.Session) {
	err := e.sessionsRepo.UpdateStatus(ctx, sess.ID, session.StatusExpired)
	if err == nil {
		e.publish(ctx, feed.TopicSessionChanged, feed.Change{Kind: "session.expired", RoomID: sess.RoomID})
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		// Session was ended remotely; the next resync drops it locally.
		return
	}

	e.mu.Lock()
	delete(e.expiryWrites, sess.ID)
	e.mu.Unlock()
	e.logger.Warn("remote expired write failed, will retry", "room", sess.RoomID, "session", sess.ID, "error", err)
}
