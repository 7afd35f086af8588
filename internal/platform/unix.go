//go:build !windows

package platform

import "context"

type unsupportedManager struct{}

// NewServiceManager returns a manager whose operations all fail with ErrUnsupported.
func NewServiceManager() ServiceManager {
	return unsupportedManager{}
}

func (unsupportedManager) Install(context.Context, InstallOptions) error { return ErrUnsupported }
func (unsupportedManager) Uninstall(context.Context) error              { return ErrUnsupported }
func (unsupportedManager) Start(context.Context) error                  { return ErrUnsupported }
func (unsupportedManager) Stop(context.Context) error                   { return ErrUnsupported }

func (unsupportedManager) Status(context.Context) (ServiceStatus, error) {
	return ServiceStatus{State: ServiceStateUnknown}, ErrUnsupported
}

// RunAsService is not implemented on non-Windows platforms.
func RunAsService(handler Handler) error {
	return ErrUnsupported
}

// IsRunningAsService returns false on non-Windows platforms.
func IsRunningAsService() bool {
	return false
}
