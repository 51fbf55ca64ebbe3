package session

import "errors"

var (
	// ErrNoSession indicates the room has no session when one is required.
	ErrNoSession = errors.New("no session for room")
	// ErrRoomNotFound indicates the referenced room doesn't exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrInvalidDuration indicates a non-positive duration or extension.
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrInvalidPax indicates a non-positive party size.
	ErrInvalidPax = errors.New("party size must be a positive integer")
	// ErrCapacityExceeded indicates the party does not fit the room.
	ErrCapacityExceeded = errors.New("party size exceeds room capacity")
)

// IsValidation reports whether err is an input validation error, rejected
// synchronously before any remote call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidPax) ||
		errors.Is(err, ErrCapacityExceeded)
}
