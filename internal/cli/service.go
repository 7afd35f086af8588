package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sharkusmanch/graphite-forwarder/internal/config"
	"github.com/sharkusmanch/graphite-forwarder/internal/platform"
	"github.com/spf13/cobra"
)

// newServiceManager is replaced in tests.
var newServiceManager = platform.NewServiceManager

var (
	installUsername string
	installPassword string
	installManual   bool
)

// NewServiceCmd creates the service command and its subcommands.
func NewServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the forwarder as a system service",
		Long: `Install and control "graphite-forwarder serve" as a system service.

Only Windows services are supported; other platforms should run serve
under their own supervisor (systemd, launchd).`,
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "Register the service",
		Long: `Register the service to run "serve". The config path is taken from
--config, or from the default config location when a file exists there.`,
		Args: cobra.NoArgs,
		RunE: runServiceInstall,
	}
	install.Flags().StringVar(&installUsername, "username", "", "account to run the service as (default LocalSystem)")
	install.Flags().StringVar(&installPassword, "password", "", "password for --username")
	install.Flags().BoolVar(&installManual, "manual", false, "do not start the service at boot")

	cmd.AddCommand(
		install,
		serviceAction("uninstall", "Stop and remove the service", "Service uninstalled.", platform.ServiceManager.Uninstall),
		serviceAction("start", "Start the service", "Service started.", platform.ServiceManager.Start),
		serviceAction("stop", "Stop the service, waiting for the queue to drain", "Service stopped.", platform.ServiceManager.Stop),
		&cobra.Command{
			Use:   "status",
			Short: "Show the service state",
			Args:  cobra.NoArgs,
			RunE:  runServiceStatus,
		},
	)

	return cmd
}

func serviceAction(use, short, done string, action func(platform.ServiceManager, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := action(newServiceManager(), cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), done)
			return nil
		},
	}
}

func runServiceInstall(cmd *cobra.Command, args []string) error {
	path, err := serviceConfigPath()
	if err != nil {
		return err
	}

	opts := platform.InstallOptions{
		ConfigPath: path,
		Username:   installUsername,
		Password:   installPassword,
		AutoStart:  !installManual,
	}
	if err := newServiceManager().Install(cmd.Context(), opts); err != nil {
		return fmt.Errorf("install: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Service %s installed.\n", platform.ServiceName)
	if path == "" {
		fmt.Fprintln(out, "No config file found; the service will run with defaults.")
	} else {
		fmt.Fprintf(out, "Config: %s\n", path)
	}
	return nil
}

func runServiceStatus(cmd *cobra.Command, args []string) error {
	status, err := newServiceManager().Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Service %s: %s\n", platform.ServiceName, status.State)
	if status.PID > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "PID: %d\n", status.PID)
	}
	return nil
}

// serviceConfigPath returns --config, else the default config file if it
// exists, else "". The service account has a different config directory, so
// the path is pinned at install time.
func serviceConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}

	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to check config file: %w", err)
	}
	return path, nil
}
