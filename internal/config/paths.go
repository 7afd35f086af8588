package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName names the per-user config directory.
	AppName = "graphite-forwarder"
	// ConfigFileName is the file looked up in each search directory.
	ConfigFileName = "config.toml"
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "GRAPHITE_FORWARDER"
	// ConfigDirEnv overrides the per-user config directory.
	ConfigDirEnv = EnvPrefix + "_CONFIG_DIR"
)

// systemConfigDir is searched last on Unix, for daemons without a home.
const systemConfigDir = "/etc/" + AppName

// DefaultConfigDir returns the directory init writes to and serve reads from.
// ConfigDirEnv wins; otherwise it is AppName under os.UserConfigDir.
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return filepath.Clean(dir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultConfigPath returns the full path to the default config file.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// SearchDirs lists, in order, where a config file is looked for when no
// explicit path is given. A missing user directory is skipped.
func SearchDirs() []string {
	var dirs []string
	if dir, err := DefaultConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, ".")
	if runtime.GOOS != "windows" {
		dirs = append(dirs, systemConfigDir)
	}
	return dirs
}
