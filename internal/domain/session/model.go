package session

import "time"

// Status represents the lifecycle status of a rental session.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusOngoing   Status = "ongoing"
	StatusExpired   Status = "expired"
)

// statusRank orders statuses along the forward lifecycle direction.
func statusRank(s Status) int {
	switch s {
	case StatusScheduled:
		return 0
	case StatusOngoing:
		return 1
	case StatusExpired:
		return 2
	}
	return -1
}

// MoreAdvanced reports whether a is further along the lifecycle than b.
// Used by the state-store merge: for an unchanged end time the more
// advanced status wins, regardless of which side observed it first.
func MoreAdvanced(a, b Status) bool {
	return statusRank(a) > statusRank(b)
}

// Session represents a single room rental occupying a time window.
// At most one session exists per room at any time.
type Session struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationMin int       `json:"duration_min"`
	Pax         int       `json:"pax"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InferStatus returns the status the session should have at the given
// instant, following the scheduled -> ongoing -> expired progression.
func (s *Session) InferStatus(now time.Time) Status {
	if !now.Before(s.EndTime) {
		return StatusExpired
	}
	if !now.Before(s.StartTime) {
		return StatusOngoing
	}
	return StatusScheduled
}

// Alert is a transient, locally derived record of an observed expiry.
// It holds a snapshot of the session at the moment expiry was first seen
// locally and lives only in the engine's state store.
type Alert struct {
	RoomID     string    `json:"room_id"`
	Session    Session   `json:"session"`
	DetectedAt time.Time `json:"detected_at"`
}
