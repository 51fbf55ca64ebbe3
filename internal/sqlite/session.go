package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hibikilabs/roomdesk/internal/domain/session"
	"github.com/hibikilabs/roomdesk/internal/repository"
)

// SessionRepository implements repository.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, room_id, start_time, end_time, duration_min, pax, status, created_at, updated_at`

// List returns all sessions
func (r *SessionRepository) List(ctx context.Context) ([]session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		var sess session.Session
		if err := scanSession(rows.Scan, &sess); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// GetByRoom retrieves the session occupying a room
func (r *SessionRepository) GetByRoom(ctx context.Context, roomID string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE room_id = ?`

	var sess session.Session
	err := scanSession(r.db.QueryRowContext(ctx, query, roomID).Scan, &sess)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// Upsert writes a session, replacing any existing row with the same ID.
// Last write wins; there is no optimistic concurrency at this layer.
func (r *SessionRepository) Upsert(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			room_id = excluded.room_id,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			duration_min = excluded.duration_min,
			pax = excluded.pax,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		sess.RoomID,
		sess.StartTime,
		sess.EndTime,
		sess.DurationMin,
		sess.Pax,
		sess.Status,
		sess.CreatedAt,
		sess.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrConstraintViolation
		}
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// Delete removes a session by ID
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByRoom removes any session row occupying a room. Deleting a room
// with no session is not an error; start uses this to clear stale rows.
func (r *SessionRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE room_id = ?`, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete session for room: %w", err)
	}
	return nil
}

// UpdateStatus updates only the lifecycle status of a session
func (r *SessionRepository) UpdateStatus(ctx context.Context, sessionID string, status session.Status) error {
	query := `UPDATE sessions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanSession(scan func(dest ...any) error, sess *session.Session) error {
	return scan(
		&sess.ID,
		&sess.RoomID,
		&sess.StartTime,
		&sess.EndTime,
		&sess.DurationMin,
		&sess.Pax,
		&sess.Status,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
}
