//go:build windows

package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const (
	// controlTimeout bounds how long Stop and Uninstall wait for the service to exit.
	controlTimeout = 30 * time.Second
	pollInterval   = 250 * time.Millisecond
)

type windowsManager struct{}

// NewServiceManager returns a manager backed by the service control manager.
func NewServiceManager() ServiceManager {
	return windowsManager{}
}

// Install registers the running executable to start with "serve".
func (windowsManager) Install(ctx context.Context, opts InstallOptions) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	if exe, err = filepath.Abs(exe); err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	args, err := ServiceArgs(opts)
	if err != nil {
		return err
	}

	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to service manager: %w", err)
	}
	defer m.Disconnect()

	if s, err := m.OpenService(ServiceName); err == nil {
		s.Close()
		return fmt.Errorf("service %s is already installed", ServiceName)
	}

	startType := uint32(mgr.StartManual)
	if opts.AutoStart {
		startType = mgr.StartAutomatic
	}

	s, err := m.CreateService(ServiceName, exe, mgr.Config{
		DisplayName:      serviceDisplayName,
		Description:      serviceDescription,
		StartType:        startType,
		ServiceStartName: opts.Username,
		Password:         opts.Password,
	}, args...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer s.Close()

	// Restart after a crash; the failure count resets after a day.
	restart := mgr.RecoveryAction{Type: mgr.ServiceRestart, Delay: 10 * time.Second}
	if err := s.SetRecoveryActions([]mgr.RecoveryAction{restart, restart, restart}, uint32((24 * time.Hour).Seconds())); err != nil {
		return fmt.Errorf("service installed, but failed to set recovery actions: %w", err)
	}
	return nil
}

// Uninstall stops the service if needed and removes it.
func (windowsManager) Uninstall(ctx context.Context) error {
	return withService(func(s *mgr.Service) error {
		if status, err := s.Query(); err == nil && status.State != svc.Stopped {
			if err := stopAndWait(ctx, s); err != nil {
				return err
			}
		}
		if err := s.Delete(); err != nil {
			return fmt.Errorf("failed to delete service: %w", err)
		}
		return nil
	})
}

// Start asks the service control manager to start the service.
func (windowsManager) Start(ctx context.Context) error {
	return withService(func(s *mgr.Service) error {
		if err := s.Start(); err != nil {
			return fmt.Errorf("failed to start service: %w", err)
		}
		return nil
	})
}

// Stop requests a stop and waits until the forwarder has drained and exited.
func (windowsManager) Stop(ctx context.Context) error {
	return withService(func(s *mgr.Service) error {
		return stopAndWait(ctx, s)
	})
}

// Status reports ServiceStateNotInstalled when the service does not exist.
func (windowsManager) Status(ctx context.Context) (ServiceStatus, error) {
	m, err := mgr.Connect()
	if err != nil {
		return ServiceStatus{}, fmt.Errorf("failed to connect to service manager: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(ServiceName)
	if err != nil {
		return ServiceStatus{State: ServiceStateNotInstalled}, nil
	}
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return ServiceStatus{}, fmt.Errorf("failed to query service: %w", err)
	}
	return ServiceStatus{State: stateOf(status.State), PID: int(status.ProcessId)}, nil
}

func withService(fn func(s *mgr.Service) error) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to service manager: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(ServiceName)
	if err != nil {
		return fmt.Errorf("service %s is not installed: %w", ServiceName, err)
	}
	defer s.Close()

	return fn(s)
}

func stopAndWait(ctx context.Context, s *mgr.Service) error {
	status, err := s.Control(svc.Stop)
	if err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for status.State != svc.Stopped {
		select {
		case <-ctx.Done():
			return fmt.Errorf("service did not stop: %w", ctx.Err())
		case <-ticker.C:
		}
		if status, err = s.Query(); err != nil {
			return fmt.Errorf("failed to query service: %w", err)
		}
	}
	return nil
}

func stateOf(s svc.State) ServiceState {
	switch s {
	case svc.Stopped:
		return ServiceStateStopped
	case svc.StartPending:
		return ServiceStateStarting
	case svc.Running:
		return ServiceStateRunning
	case svc.StopPending:
		return ServiceStateStopping
	default:
		return ServiceStateUnknown
	}
}

// RunAsService hands control to the service control manager and runs handler
// until the service is stopped.
func RunAsService(handler Handler) error {
	return svc.Run(ServiceName, &forwarderService{handler: handler})
}

// IsRunningAsService returns true if the process was started by the service control manager.
func IsRunningAsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// forwarderService implements svc.Handler.
type forwarderService struct {
	handler Handler
}

func (s *forwarderService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (svcSpecificEC bool, exitCode uint32) {
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.handler(ctx)
	}()

	changes <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}

	for {
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return true, 1
			}
			return false, 0

		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus

			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				// Let the forwarder flush what it can before reporting stopped.
				<-errCh
				return false, 0
			}
		}
	}
}
