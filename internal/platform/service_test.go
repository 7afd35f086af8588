package platform

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceArgs(t *testing.T) {
	t.Run("without config", func(t *testing.T) {
		args, err := ServiceArgs(InstallOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"serve"}, args)
	})

	t.Run("relative config is made absolute", func(t *testing.T) {
		args, err := ServiceArgs(InstallOptions{ConfigPath: "fwd.toml"})
		require.NoError(t, err)

		want, err := filepath.Abs("fwd.toml")
		require.NoError(t, err)
		assert.Equal(t, []string{"serve", "--config", want}, args)
	})
}
