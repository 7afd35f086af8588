package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sharkusmanch/graphite-forwarder/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		Long: `Write an example config file to --config, or to the default config
location when --config is not given. Existing files are kept unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	cmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		if _, err := config.EnsureConfigDir(); err != nil {
			return err
		}
		p, err := config.DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
		path = p
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}

	if err := config.WriteExampleConfig(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
	return nil
}
