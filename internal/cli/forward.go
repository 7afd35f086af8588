package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/config"
	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
	"github.com/sharkusmanch/graphite-forwarder/internal/graphite"
	"golang.org/x/sync/errgroup"
)

// DefaultDrainWait bounds how long a command waits for queued lines on exit.
const DefaultDrainWait = 30 * time.Second

const drainPollInterval = 50 * time.Millisecond

// newForwarder builds a Forwarder from the loaded config.
func newForwarder(cfg *config.Config, logger *slog.Logger) *graphite.Forwarder {
	return graphite.NewForwarder(cfg.Collector.Host, cfg.Collector.Port,
		graphite.WithSocketTimeout(cfg.Forwarder.SocketTimeout),
		graphite.WithReconnectDelay(cfg.Forwarder.ReconnectDelay),
		graphite.WithQueueSizeLimit(cfg.Forwarder.QueueSizeLimit),
		graphite.WithChunkSize(cfg.Forwarder.ChunkSize),
		graphite.WithLogger(domain.NewSlogLogger(logger)),
	)
}

// backlog is the part of the Forwarder a drain wait needs.
type backlog interface {
	Len() int
}

// waitForDrain polls until the queue is empty, ctx is done or wait elapses.
func waitForDrain(ctx context.Context, q backlog, wait time.Duration) error {
	if q.Len() == 0 {
		return nil
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("interrupted with %d line(s) still queued: %w", q.Len(), ctx.Err())
		case <-deadline.C:
			return fmt.Errorf("timed out after %s with %d line(s) still queued", wait, q.Len())
		case <-ticker.C:
			if q.Len() == 0 {
				return nil
			}
		}
	}
}

// forward runs f's drain loop while produce pushes into it, then waits up to
// wait for the queue to empty. The drain loop is stopped on return.
func forward(ctx context.Context, f *graphite.Forwarder, wait time.Duration, produce func(ctx context.Context) error) error {
	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	defer stop()

	var g errgroup.Group

	g.Go(func() error {
		return ignoreCanceled(f.Run(runCtx))
	})

	g.Go(func() error {
		defer stop()
		if err := produce(ctx); err != nil {
			return err
		}
		return waitForDrain(ctx, f, wait)
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
