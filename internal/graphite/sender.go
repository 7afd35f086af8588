package graphite

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// LineSender writes batches of lines over the connection held by a ConnManager.
type LineSender struct {
	conns        *ConnManager
	writeTimeout time.Duration
}

// NewLineSender creates a LineSender. A zero writeTimeout means writes have no deadline.
func NewLineSender(conns *ConnManager, writeTimeout time.Duration) *LineSender {
	return &LineSender{
		conns:        conns,
		writeTimeout: writeTimeout,
	}
}

// Send writes lines in order, one write at a time. Any failure invalidates
// the connection; the caller cannot tell how many lines got through.
func (s *LineSender) Send(ctx context.Context, lines []domain.Line) error {
	conn, err := s.conns.Acquire(ctx)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.writeTimeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
				s.conns.Invalidate(conn)
				return fmt.Errorf("%w: %w", ErrWriteFailed, err)
			}
		}

		if _, err := io.WriteString(conn, line.String()); err != nil {
			s.conns.Invalidate(conn)
			return fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}

		s.conns.touch(conn)
	}

	return nil
}

// Ensure LineSender implements domain.Sender.
var _ domain.Sender = (*LineSender)(nil)
