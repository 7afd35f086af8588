package domain

import (
	"context"
	"time"
)

// Sender delivers an ordered batch of lines to the collector.
// A returned error means progress is unknown and the whole batch must be retried.
type Sender interface {
	Send(ctx context.Context, lines []Line) error
}

// Pusher accepts metric observations for delivery.
type Pusher interface {
	// Push enqueues a metric stamped with the current time.
	Push(name string, value float64) error

	// PushAt enqueues a metric with an explicit timestamp.
	PushAt(name string, value float64, ts time.Time) error
}
