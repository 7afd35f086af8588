// Package cli provides the command-line interface.
package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sharkusmanch/graphite-forwarder/internal/config"
	"github.com/sharkusmanch/graphite-forwarder/pkg/version"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	cfgFile       string
	logLevel      string
	collectorHost string
	collectorPort int
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "graphite-forwarder",
		Short: "Buffering forwarder for Graphite plaintext metrics",
		Long: `graphite-forwarder queues metric data points in memory and ships them,
in order, to a Graphite plaintext collector over a persistent TCP connection.

Producers never block on the network: lines are buffered while the collector is
unreachable and delivered once it comes back.`,
		Version: version.Get().String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&collectorHost, "host", "", "collector host (overrides collector.host)")
	rootCmd.PersistentFlags().IntVar(&collectorPort, "port", 0, "collector port (overrides collector.port)")

	rootCmd.AddCommand(NewSendCmd())
	rootCmd.AddCommand(NewPipeCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewServiceCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig installs a stderr logger until the config is loaded.
func initConfig() error {
	level := slog.LevelInfo
	if logLevel != "" {
		level = parseLevel(logLevel)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging configures logging based on the loaded config.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	// Load already folded the --log-level flag into cfg.Log.Level
	level := parseLevel(cfg.Log.Level)

	var output io.Writer = os.Stderr
	if cfg.Log.Output != "" {
		dir := filepath.Dir(cfg.Log.Output)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}

		output = &lumberjack.Logger{
			Filename:   cfg.Log.Output,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}

	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

// loadConfig loads the application configuration.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()

	if cfgFile != "" {
		loader = loader.WithConfigPath(cfgFile)
	}

	// Apply CLI flag overrides
	if logLevel != "" {
		loader.Set("log.level", logLevel)
	}
	if collectorHost != "" {
		loader.Set("collector.host", collectorHost)
	}
	if collectorPort != 0 {
		loader.Set("collector.port", collectorPort)
	}

	return loader.Load()
}
