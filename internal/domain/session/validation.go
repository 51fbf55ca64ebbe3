package session

// StartInput describes a session start request.
type StartInput struct {
	DurationMin int
	Pax         int
	Capacity    int
}

// ValidateStartInput validates fields required to start a session.
// Validation failures are rejected before any remote call is issued.
func ValidateStartInput(in StartInput) error {
	if in.DurationMin <= 0 {
		return ErrInvalidDuration
	}
	if in.Pax <= 0 {
		return ErrInvalidPax
	}
	if in.Capacity > 0 && in.Pax > in.Capacity {
		return ErrCapacityExceeded
	}
	return nil
}

// ValidateExtension validates the minutes added by an extend request.
func ValidateExtension(minutes int) error {
	if minutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}
