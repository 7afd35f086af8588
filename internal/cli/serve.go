package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/app"
	"github.com/sharkusmanch/graphite-forwarder/internal/config"
	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
	"github.com/sharkusmanch/graphite-forwarder/internal/ingest"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveWait time.Duration

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the forwarder in foreground",
		Long: `Accept "name value [unix_ms]" lines from local producers on ingest.listen
and forward them to the collector until interrupted.

On shutdown the listener stops first, then the forwarder gets up to --wait
to deliver what is still queued. Use Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().DurationVar(&serveWait, "wait", DefaultDrainWait, "how long to wait for queued lines on shutdown")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logger.Info("starting graphite-forwarder in foreground mode")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Serve(ctx, cfg, logger, serveWait); err != nil {
		return err
	}

	logger.Info("graphite-forwarder stopped")
	return nil
}

// RunService loads the default config and serves until ctx is cancelled.
// It is the entry point used under a service manager.
func RunService(ctx context.Context) error {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return Serve(ctx, cfg, logger, DefaultDrainWait)
}

// Serve forwards lines received on cfg.Ingest.Listen until ctx is cancelled.
// The forwarder keeps draining for up to wait after the listener stops.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, wait time.Duration) error {
	if cfg.Ingest.Listen == "" {
		return errors.New("ingest.listen is empty, nothing to serve")
	}

	f := newForwarder(cfg, logger)

	ln, err := ingest.NewListener(cfg.Ingest.Listen, f, ingest.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Ingest.Listen, err)
	}

	runCtx, stopForwarder := context.WithCancel(context.WithoutCancel(ctx))
	defer stopForwarder()

	var g errgroup.Group

	g.Go(func() error {
		return ignoreCanceled(f.Run(runCtx))
	})

	// Health reports are pushed into the forwarder alongside producer lines.
	reportCtx, stopReports := context.WithCancel(ctx)
	defer stopReports()
	reportsDone := make(chan struct{})
	if cfg.SelfStats.Enabled() {
		reporter := app.NewReporter(f, func() domain.Health {
			stats := ln.Stats()
			return domain.Health{
				QueueLength: f.Len(),
				Accepted:    stats.Accepted,
				Skipped:     stats.Skipped,
				Invalid:     stats.Invalid,
				Rejected:    stats.Rejected,
			}
		}, app.WithPrefix(cfg.SelfStats.Prefix), app.WithLogger(logger))
		scheduler := app.NewScheduler(reporter,
			app.WithInterval(cfg.SelfStats.Interval),
			app.WithSchedulerLogger(logger),
		)
		go func() {
			defer close(reportsDone)
			_ = scheduler.Start(reportCtx)
		}()
	} else {
		close(reportsDone)
	}

	g.Go(func() error {
		defer stopForwarder()

		serveErr := ln.Serve(ctx)

		// The final report goes out before the drain wait.
		stopReports()
		<-reportsDone

		if serveErr != nil {
			return fmt.Errorf("ingest listener failed: %w", serveErr)
		}

		stats := ln.Stats()
		logger.Info("ingest stopped",
			"accepted", stats.Accepted,
			"invalid", stats.Invalid,
			"rejected", stats.Rejected,
		)

		if err := waitForDrain(context.Background(), f, wait); err != nil {
			logger.Warn("shutting down with undelivered lines", "error", err)
		}
		return nil
	})

	return g.Wait()
}
