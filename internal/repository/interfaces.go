package repository

import (
	"context"

	"github.com/hibikilabs/roomdesk/internal/domain/history"
	"github.com/hibikilabs/roomdesk/internal/domain/room"
	"github.com/hibikilabs/roomdesk/internal/domain/session"
)

// RoomRepository manages room persistence
type RoomRepository interface {
	List(ctx context.Context) ([]room.Room, error)
	Get(ctx context.Context, id string) (*room.Room, error)
	Create(ctx context.Context, r *room.Room) error
	UpdateStatus(ctx context.Context, id string, status room.Status) error
}

// SessionRepository manages session persistence. Sessions are keyed by
// room: a room has zero or one session row at any time.
type SessionRepository interface {
	List(ctx context.Context) ([]session.Session, error)
	GetByRoom(ctx context.Context, roomID string) (*session.Session, error)
	Upsert(ctx context.Context, sess *session.Session) error
	Delete(ctx context.Context, sessionID string) error
	DeleteByRoom(ctx context.Context, roomID string) error
	UpdateStatus(ctx context.Context, sessionID string, status session.Status) error
}

// HistoryRepository manages the append-only audit log
type HistoryRepository interface {
	List(ctx context.Context, limit int) ([]history.Record, error)
	HasEvent(ctx context.Context, sessionID string, event history.Event) (bool, error)
	Insert(ctx context.Context, rec *history.Record) error
}
