package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/ingest"
	"github.com/spf13/cobra"
)

var pipeWait time.Duration

// NewPipeCmd creates the pipe command.
func NewPipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Forward metric lines read from stdin",
		Long: `Read "name value [unix_ms]" lines from stdin and forward them.

Blank lines and lines starting with # are ignored. Malformed lines are logged
and skipped. On EOF the command waits up to --wait for the queue to drain.`,
		Args: cobra.NoArgs,
		RunE: runPipe,
	}

	cmd.Flags().DurationVar(&pipeWait, "wait", DefaultDrainWait, "how long to wait for queued lines after EOF")

	return cmd
}

func runPipe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := newForwarder(cfg, logger)
	return forward(ctx, f, pipeWait, func(ctx context.Context) error {
		stats, err := ingest.Consume(ctx, cmd.InOrStdin(), f, logger)
		logger.Info("input finished",
			"accepted", stats.Accepted,
			"skipped", stats.Skipped,
			"invalid", stats.Invalid,
			"rejected", stats.Rejected,
		)
		return err
	})
}
