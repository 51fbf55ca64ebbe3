package room

// Status represents the occupancy status of a room.
type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
)

// Room represents a rentable karaoke room. Rooms are owned by the remote
// store; the core reads them to gate commands and flips Status as a side
// effect of starting and ending sessions.
type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Status   Status `json:"status"`
}
