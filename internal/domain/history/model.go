package history

import "time"

// Event identifies the kind of lifecycle event a record captures.
type Event string

const (
	// EventCompleted marks a session that was ended and archived.
	EventCompleted Event = "completed"
)

// Record is an append-only audit entry for a session lifecycle event.
// At most one completed record exists per session identifier.
type Record struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	RoomID      string    `json:"room_id"`
	Event       Event     `json:"event"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationMin int       `json:"duration_min"`
	Pax         int       `json:"pax"`
	Actor       string    `json:"actor"`
	RecordedAt  time.Time `json:"recorded_at"`
}
