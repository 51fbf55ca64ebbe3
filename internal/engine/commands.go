package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hibikilabs/roomdesk/internal/domain/history"
	"github.com/hibikilabs/roomdesk/internal/domain/room"
	"github.com/hibikilabs/roomdesk/internal/domain/session"
	"github.com/hibikilabs/roomdesk/internal/feed"
	"github.com/hibikilabs/roomdesk/internal/repository"
)

// StartRequest describes a session start command.
type StartRequest struct {
	// StartTime zero means "now".
	StartTime   time.Time
	DurationMin int
	Pax         int
}

// StartSession creates a session for a room, marks the room occupied, and
// resyncs. Validation failures reject before any remote write. A stale
// session row left by prior inconsistent state is removed defensively.
func (e *Engine) StartSession(ctx context.Context, roomID string, req StartRequest) (*session.Session, error) {
	if err := session.ValidateStartInput(session.StartInput{
		DurationMin: req.DurationMin,
		Pax:         req.Pax,
	}); err != nil {
		return nil, err
	}

	rm, err := e.roomsRepo.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, session.ErrRoomNotFound
		}
		return nil, fmt.Errorf("loading room: %w", err)
	}
	if err := session.ValidateStartInput(session.StartInput{
		DurationMin: req.DurationMin,
		Pax:         req.Pax,
		Capacity:    rm.Capacity,
	}); err != nil {
		return nil, err
	}

	if err := e.sessionsRepo.DeleteByRoom(ctx, roomID); err != nil {
		return nil, fmt.Errorf("clearing stale session: %w", err)
	}

	now := e.clock()
	start := req.StartTime
	if start.IsZero() {
		start = now
	}
	status := session.StatusScheduled
	if !start.After(now) {
		status = session.StatusOngoing
	}

	sess := &session.Session{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(req.DurationMin) * time.Minute),
		DurationMin: req.DurationMin,
		Pax:         req.Pax,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.sessionsRepo.Upsert(ctx, sess); err != nil {
		return nil, fmt.Errorf("writing session: %w", err)
	}
	if err := e.roomsRepo.UpdateStatus(ctx, roomID, room.StatusOccupied); err != nil {
		return nil, fmt.Errorf("marking room occupied: %w", err)
	}

	e.publish(ctx, feed.TopicSessionChanged, feed.Change{Kind: "session.started", RoomID: roomID})

	if err := e.Resync(ctx); err != nil {
		return nil, err
	}
	e.logger.Info("session started", "room", roomID, "session", sess.ID, "duration_min", req.DurationMin, "pax", req.Pax)
	return sess, nil
}

// ExtendSession advances a session's end time by the given minutes,
// reviving an expired session to ongoing. The alarm dedupe marks for the
// room are reset so the new expiry can fire, and the room's alert clears.
func (e *Engine) ExtendSession(ctx context.Context, roomID string, minutes int) (*session.Session, error) {
	if err := session.ValidateExtension(minutes); err != nil {
		return nil, err
	}

	current, err := e.sessionsRepo.GetByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, session.ErrNoSession
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	updated := *current
	updated.EndTime = current.EndTime.Add(time.Duration(minutes) * time.Minute)
	updated.DurationMin = current.DurationMin + minutes
	updated.Status = session.StatusOngoing
	updated.UpdatedAt = e.clock()

	if err := e.sessionsRepo.Upsert(ctx, &updated); err != nil {
		return nil, fmt.Errorf("writing session: %w", err)
	}

	e.alarm.Reset(roomID)
	e.mu.Lock()
	delete(e.alerts, roomID)
	delete(e.expiryWrites, updated.ID)
	e.mu.Unlock()

	e.publish(ctx, feed.TopicSessionChanged, feed.Change{Kind: "session.extended", RoomID: roomID})

	if err := e.Resync(ctx); err != nil {
		return nil, err
	}
	e.logger.Info("session extended", "room", roomID, "session", updated.ID, "minutes", minutes)
	return &updated, nil
}

// EndSession archives a session to history, deletes it, and frees the
// room. The history insert is idempotent: an existence check plus the
// store's duplicate skip tolerate a double click or a retried call.
// Local alert and alarm state for the room always clears, even when the
// remote operation fails; the failure is still reported so the caller can
// retry without producing a second history row.
func (e *Engine) EndSession(ctx context.Context, roomID, actor string) error {
	defer e.clearRoomLocal(roomID)

	sess, err := e.sessionsRepo.GetByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return session.ErrNoSession
		}
		return fmt.Errorf("loading session: %w", err)
	}

	if actor == "" {
		actor = e.actor
	}

	exists, err := e.historyRepo.HasEvent(ctx, sess.ID, history.EventCompleted)
	if err != nil {
		return fmt.Errorf("checking history: %w", err)
	}
	if !exists {
		rec := &history.Record{
			ID:          uuid.NewString(),
			SessionID:   sess.ID,
			RoomID:      roomID,
			Event:       history.EventCompleted,
			StartTime:   sess.StartTime,
			EndTime:     sess.EndTime,
			DurationMin: sess.DurationMin,
			Pax:         sess.Pax,
			Actor:       actor,
			RecordedAt:  e.clock(),
		}
		err := e.historyRepo.Insert(ctx, rec)
		if err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("recording history: %w", err)
		}
		if err == nil {
			e.publish(ctx, feed.TopicHistoryChanged, feed.Change{Kind: "history.completed", RoomID: roomID, Actor: actor})
		}
	}

	if err := e.sessionsRepo.Delete(ctx, sess.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	if err := e.roomsRepo.UpdateStatus(ctx, roomID, room.StatusAvailable); err != nil {
		return fmt.Errorf("marking room available: %w", err)
	}

	e.publish(ctx, feed.TopicSessionChanged, feed.Change{Kind: "session.ended", RoomID: roomID, Actor: actor})

	if err := e.Resync(ctx); err != nil {
		return err
	}
	e.logger.Info("session ended", "room", roomID, "session", sess.ID, "actor", actor)
	return nil
}

// AcknowledgeAlert clears a room's alert and stops its indication. The
// dedupe mark stays, so acknowledging never causes a refire.
func (e *Engine) AcknowledgeAlert(roomID string) {
	e.mu.Lock()
	delete(e.alerts, roomID)
	e.mu.Unlock()

	e.alarm.Stop(roomID)
}

// clearRoomLocal is the resilience clear: local alarm and alert state for
// a room drops regardless of how the remote side of a command fared.
func (e *Engine) clearRoomLocal(roomID string) {
	e.mu.Lock()
	if sess, ok := e.sessions[roomID]; ok {
		delete(e.expiryWrites, sess.ID)
	}
	delete(e.alerts, roomID)
	e.mu.Unlock()

	e.alarm.Reset(roomID)
}
