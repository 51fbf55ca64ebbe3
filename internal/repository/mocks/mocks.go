package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hibikilabs/roomdesk/internal/domain/history"
	"github.com/hibikilabs/roomdesk/internal/domain/room"
	"github.com/hibikilabs/roomdesk/internal/domain/session"
)

// RoomRepository is a mock for repository.RoomRepository.
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) List(ctx context.Context) ([]room.Room, error) {
	args := m.Called(ctx)
	if rooms, ok := args.Get(0).([]room.Room); ok {
		return rooms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) Get(ctx context.Context, id string) (*room.Room, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*room.Room); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) Create(ctx context.Context, r *room.Room) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *RoomRepository) UpdateStatus(ctx context.Context, id string, status room.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// SessionRepository is a mock for repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) List(ctx context.Context) ([]session.Session, error) {
	args := m.Called(ctx)
	if sessions, ok := args.Get(0).([]session.Session); ok {
		return sessions, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) GetByRoom(ctx context.Context, roomID string) (*session.Session, error) {
	args := m.Called(ctx, roomID)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Upsert(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *SessionRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *SessionRepository) UpdateStatus(ctx context.Context, sessionID string, status session.Status) error {
	args := m.Called(ctx, sessionID, status)
	return args.Error(0)
}

// HistoryRepository is a mock for repository.HistoryRepository.
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) List(ctx context.Context, limit int) ([]history.Record, error) {
	args := m.Called(ctx, limit)
	if records, ok := args.Get(0).([]history.Record); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HistoryRepository) HasEvent(ctx context.Context, sessionID string, event history.Event) (bool, error) {
	args := m.Called(ctx, sessionID, event)
	return args.Bool(0), args.Error(1)
}

func (m *HistoryRepository) Insert(ctx context.Context, rec *history.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
