package domain

import "time"

// Health is a point-in-time view of the forwarder's own state.
type Health struct {
	Timestamp time.Time

	// Up is false only in the last report before shutdown.
	Up bool

	// QueueLength is the number of lines waiting to be sent.
	QueueLength int

	// Ingest counters, cumulative since start.
	Accepted int
	Skipped  int
	Invalid  int
	Rejected int
}
