package events

import "context"

// Publisher delivers one encoded event. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
