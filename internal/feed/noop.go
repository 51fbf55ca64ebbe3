package feed

import "context"

// NoopPublisher is a Publisher that does nothing (used when no feed URL is
// configured).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, change Change) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
