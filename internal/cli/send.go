package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/ingest"
	"github.com/spf13/cobra"
)

var sendWait time.Duration

// NewSendCmd creates the send command.
func NewSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send NAME VALUE [UNIX_MS]",
		Short: "Send a single metric and exit",
		Long: `Queue one metric, deliver it to the collector and exit.

The timestamp is milliseconds since the Unix epoch; it defaults to now.
The command fails if the line could not be delivered within --wait.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: runSend,
	}

	cmd.Flags().DurationVar(&sendWait, "wait", DefaultDrainWait, "how long to wait for delivery")

	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	m, ok, err := ingest.ParseLine(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid metric name %q", args[0])
	}

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
	return forward(ctx, f, sendWait, func(context.Context) error {
		if err := f.PushAt(m.Name, m.Value, m.Timestamp); err != nil {
			return fmt.Errorf("failed to queue metric: %w", err)
		}
		return nil
	})
}
