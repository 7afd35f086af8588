package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/config"
	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
	"github.com/sharkusmanch/graphite-forwarder/internal/graphite"
	"github.com/sharkusmanch/graphite-forwarder/internal/ingest"
	"github.com/spf13/cobra"
)

const validateDialTimeout = 5 * time.Second

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and test connectivity",
		Long: `Validate the configuration file and test connectivity to the collector.

This checks:
- Config file syntax and values
- Collector TCP reachability
- Ingest listen address availability`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration:")
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "  ✗ Config file: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "  ✓ Config file syntax valid\n")

	configPath, _ := config.DefaultConfigPath()
	if cfgFile != "" {
		configPath = cfgFile
	}
	fmt.Fprintf(out, "  Config file: %s\n", configPath)
	fmt.Fprintf(out, "  Collector: %s\n", cfg.Collector.Address())
	fmt.Fprintf(out, "  Socket timeout: %s\n", cfg.Forwarder.SocketTimeout)
	fmt.Fprintf(out, "  Reconnect delay: %s\n", cfg.Forwarder.ReconnectDelay)
	fmt.Fprintf(out, "  Queue size limit: %d\n", cfg.Forwarder.QueueSizeLimit)
	fmt.Fprintf(out, "  Chunk size: %d\n", cfg.Forwarder.ChunkSize)
	if cfg.Ingest.Listen != "" {
		fmt.Fprintf(out, "  Ingest listen: %s\n", cfg.Ingest.Listen)
	} else {
		fmt.Fprintf(out, "  Ingest listen: disabled\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Checks:")
	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	failed := false

	timeout := validateDialTimeout
	if st := cfg.Forwarder.SocketTimeout; st > 0 && st < timeout {
		timeout = st
	}
	conns := graphite.NewConnManager(cfg.Collector.Address(), timeout, domain.NewSlogLogger(logger))
	if _, err := conns.Acquire(ctx); err != nil {
		fmt.Fprintf(out, "  ✗ Collector: %v\n", err)
		failed = true
	} else {
		fmt.Fprintf(out, "  ✓ Collector reachable\n")
	}
	_ = conns.Close()

	if cfg.Ingest.Listen != "" {
		// Bound the same way serve binds it, then released without serving.
		ln, err := ingest.NewListener(cfg.Ingest.Listen, nil)
		if err != nil {
			fmt.Fprintf(out, "  ✗ Ingest listen address: %v\n", err)
			failed = true
		} else {
			_ = ln.Close()
			fmt.Fprintf(out, "  ✓ Ingest listen address available\n")
		}
	}

	fmt.Fprintln(out)
	if failed {
		return fmt.Errorf("validation failed")
	}
	fmt.Fprintln(out, "Validation complete.")
	return nil
}
