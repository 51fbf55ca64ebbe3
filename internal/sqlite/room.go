package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hibikilabs/roomdesk/internal/domain/room"
	"github.com/hibikilabs/roomdesk/internal/repository"
)

// RoomRepository implements repository.RoomRepository for SQLite
type RoomRepository struct {
	db *DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns all rooms ordered by name
func (r *RoomRepository) List(ctx context.Context) ([]room.Room, error) {
	query := `SELECT id, name, capacity, status FROM rooms ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []room.Room
	for rows.Next() {
		var rm room.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.Status); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

// Get retrieves a room by ID
func (r *RoomRepository) Get(ctx context.Context, id string) (*room.Room, error) {
	query := `SELECT id, name, capacity, status FROM rooms WHERE id = ?`

	var rm room.Room
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.Status)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &rm, nil
}

// Create inserts a new room
func (r *RoomRepository) Create(ctx context.Context, rm *room.Room) error {
	query := `INSERT INTO rooms (id, name, capacity, status) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, rm.ID, rm.Name, rm.Capacity, rm.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// UpdateStatus updates a room's occupancy status
func (r *RoomRepository) UpdateStatus(ctx context.Context, id string, status room.Status) error {
	query := `UPDATE rooms SET status = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
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
