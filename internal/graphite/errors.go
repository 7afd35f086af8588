package graphite

import "errors"

var (
	// ErrCapacityExceeded is returned by Push when the queue is over its limit.
	ErrCapacityExceeded = errors.New("too many metric lines in send queue, not accepting more")

	// ErrConnectionFailed means no connection to the collector could be made.
	ErrConnectionFailed = errors.New("connection to collector failed")

	// ErrWriteFailed means a write to the collector failed mid-batch.
	ErrWriteFailed = errors.New("write to collector failed")
)
