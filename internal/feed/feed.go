package feed

import "context"

// Topic constants for store change notifications. Payloads are opaque to
// consumers: the only reaction to any change event is a resync.
const (
	TopicSessionChanged = "roomdesk.session.changed"
	TopicHistoryChanged = "roomdesk.history.changed"
)

// Change is the payload published on a store mutation. Consumers must not
// interpret it beyond logging; it exists for traceability only.
type Change struct {
	Kind   string `json:"kind"`
	RoomID string `json:"room_id,omitempty"`
	Actor  string `json:"actor,omitempty"`
}

// Publisher is the interface for emitting change notifications.
type Publisher interface {
	Publish(ctx context.Context, topic string, change Change) error
	Close() error
}

// Subscriber is the interface for receiving change notifications.
type Subscriber interface {
	// Subscribe returns a channel of raw payloads for the topic and a
	// cancel function that unsubscribes and closes the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
