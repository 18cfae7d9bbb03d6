package eventstream

import "context"

// Publisher publishes archive events to an event stream backend.
type Publisher interface {
	Publish(ctx context.Context, event *ArchiveEvent) error
	Close() error
}
