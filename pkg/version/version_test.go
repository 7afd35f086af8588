package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
}

func TestInfo_WithBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	t.Run("defaults are filled in", func(t *testing.T) {
		info := Info{Version: "dev", Commit: "unknown", Date: "unknown"}.withBuildInfo(bi)
		assert.Equal(t, "v1.4.0", info.Version)
		assert.Equal(t, "0123456789ab", info.Commit)
		assert.Equal(t, "2026-01-02T03:04:05Z", info.Date)
	})

	t.Run("ldflags values win", func(t *testing.T) {
		info := Info{Version: "v2.0.0", Commit: "abc", Date: "today"}.withBuildInfo(bi)
		assert.Equal(t, "v2.0.0", info.Version)
		assert.Equal(t, "abc", info.Commit)
		assert.Equal(t, "today", info.Date)
	})

	t.Run("devel main version is ignored", func(t *testing.T) {
		info := Info{Version: "dev"}.withBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		assert.Equal(t, "dev", info.Version)
	})
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "abc", Date: "today", GoVersion: "go1.24.0", OS: "linux", Arch: "amd64"}
	assert.Equal(t, "graphite-forwarder v1.0.0 (commit: abc, built: today, go1.24.0, linux/amd64)", info.String())
}
