package sqlite

import (
	"context"
	"fmt"

	"github.com/hibikilabs/roomdesk/internal/domain/history"
	"github.com/hibikilabs/roomdesk/internal/repository"
)

// HistoryRepository implements repository.HistoryRepository for SQLite
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// List returns up to limit records, most recent first
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]history.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, session_id, room_id, event, start_time, end_time,
		       duration_min, pax, actor, recorded_at
		FROM history
		ORDER BY recorded_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		var rec history.Record
		err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.RoomID,
			&rec.Event,
			&rec.StartTime,
			&rec.EndTime,
			&rec.DurationMin,
			&rec.Pax,
			&rec.Actor,
			&rec.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// HasEvent reports whether a record already exists for a session and event
func (r *HistoryRepository) HasEvent(ctx context.Context, sessionID string, event history.Event) (bool, error) {
	query := `SELECT COUNT(*) FROM history WHERE session_id = ? AND event = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, sessionID, event).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check history: %w", err)
	}
	return count > 0, nil
}

// Insert appends a record. A second insert for the same (session, event)
// pair returns repository.ErrDuplicate so callers can treat it as a skip.
func (r *HistoryRepository) Insert(ctx context.Context, rec *history.Record) error {
	query := `
		INSERT INTO history (
			id, session_id, room_id, event, start_time, end_time,
			duration_min, pax, actor, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.SessionID,
		rec.RoomID,
		rec.Event,
		rec.StartTime,
		rec.EndTime,
		rec.DurationMin,
		rec.Pax,
		rec.Actor,
		rec.RecordedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}
