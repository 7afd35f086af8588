// Package platform runs the forwarder under the host's service manager.
package platform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ServiceName is the name registered with the service control manager.
const ServiceName = "GraphiteForwarder"

const (
	serviceDisplayName = "Graphite Forwarder"
	serviceDescription = "Buffers Graphite plaintext metrics and forwards them to a carbon collector."
)

// ErrUnsupported is returned where the host has no supported service manager.
var ErrUnsupported = errors.New("service management is not supported on this platform")

// Handler runs until ctx is cancelled by a stop or shutdown request.
type Handler func(ctx context.Context) error

// ServiceState is the lifecycle state reported by the service manager.
type ServiceState string

const (
	ServiceStateUnknown      ServiceState = "unknown"
	ServiceStateNotInstalled ServiceState = "not installed"
	ServiceStateStopped      ServiceState = "stopped"
	ServiceStateStarting     ServiceState = "starting"
	ServiceStateRunning      ServiceState = "running"
	ServiceStateStopping     ServiceState = "stopping"
)

// ServiceStatus is a snapshot of the installed service.
type ServiceStatus struct {
	State ServiceState
	PID   int
}

// InstallOptions configures how the service is registered.
type InstallOptions struct {
	// ConfigPath is passed to "serve --config". Relative paths are made
	// absolute because services start in the system directory.
	ConfigPath string
	Username   string
	Password   string
	AutoStart  bool
}

// ServiceManager registers and controls the forwarder as a host service.
type ServiceManager interface {
	Install(ctx context.Context, opts InstallOptions) error
	Uninstall(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) (ServiceStatus, error)
}

// ServiceArgs returns the arguments the service manager starts the binary with.
func ServiceArgs(opts InstallOptions) ([]string, error) {
	args := []string{"serve"}
	if opts.ConfigPath == "" {
		return args, nil
	}

	path, err := filepath.Abs(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	return append(args, "--config", path), nil
}
