package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// maxLineLength bounds a single input line.
const maxLineLength = 64 * 1024

// Stats counts what happened to the lines of one input stream.
type Stats struct {
	Accepted int
	Skipped  int
	Invalid  int
	Rejected int
}

// Outcome is what happened to a single input line.
type Outcome int

const (
	// OutcomeAccepted means the metric was queued.
	OutcomeAccepted Outcome = iota
	// OutcomeSkipped means a blank or comment line.
	OutcomeSkipped
	// OutcomeInvalid means the line could not be parsed.
	OutcomeInvalid
	// OutcomeRejected means the queue refused the metric.
	OutcomeRejected
)

// Record counts one outcome.
func (s *Stats) Record(o Outcome) {
	switch o {
	case OutcomeAccepted:
		s.Accepted++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeInvalid:
		s.Invalid++
	case OutcomeRejected:
		s.Rejected++
	}
}

// Consume reads metric lines from r and pushes them until EOF or ctx is done.
// Malformed lines and pushes rejected by a full queue are logged and counted;
// they do not stop the stream.
func Consume(ctx context.Context, r io.Reader, pusher domain.Pusher, logger *slog.Logger) (Stats, error) {
	var stats Stats
	err := consume(ctx, r, pusher, logger, stats.Record)
	return stats, err
}

// consume calls record once per line, as soon as the line is handled.
func consume(ctx context.Context, r io.Reader, pusher domain.Pusher, logger *slog.Logger, record func(Outcome)) error {
	if logger == nil {
		logger = slog.Default()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		m, ok, err := ParseLine(scanner.Text())
		if err != nil {
			logger.Warn("skipping metric line", "error", err)
			record(OutcomeInvalid)
			continue
		}
		if !ok {
			record(OutcomeSkipped)
			continue
		}

		if err := pusher.PushAt(m.Name, m.Value, m.Timestamp); err != nil {
			logger.Error("metric rejected", "name", m.Name, "error", err)
			record(OutcomeRejected)
			continue
		}
		record(OutcomeAccepted)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read metric lines: %w", err)
	}
	return nil
}
