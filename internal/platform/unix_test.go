//go:build !windows

package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunAsService_Unsupported(t *testing.T) {
	called := false
	err := RunAsService(func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, called)
	assert.False(t, IsRunningAsService())
}

func TestNewServiceManager_Unsupported(t *testing.T) {
	ctx := context.Background()
	m := NewServiceManager()

	assert.ErrorIs(t, m.Install(ctx, InstallOptions{AutoStart: true}), ErrUnsupported)
	assert.ErrorIs(t, m.Uninstall(ctx), ErrUnsupported)
	assert.ErrorIs(t, m.Start(ctx), ErrUnsupported)
	assert.ErrorIs(t, m.Stop(ctx), ErrUnsupported)

	status, err := m.Status(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, ServiceStateUnknown, status.State)
}
