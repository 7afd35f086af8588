// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the program name reported in version strings.
const Name = "graphite-forwarder"

// These variables are set at build time via ldflags. When they are left at
// their defaults, Get falls back to the module build info recorded by go install.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info contains version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get returns the current version information.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info = info.withBuildInfo(bi)
	}
	return info
}

// withBuildInfo fills fields still at their defaults from bi.
func (i Info) withBuildInfo(bi *debug.BuildInfo) Info {
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "unknown" && s.Value != "" {
				i.Commit = s.Value
				if len(i.Commit) > 12 {
					i.Commit = i.Commit[:12]
				}
			}
		case "vcs.time":
			if i.Date == "unknown" && s.Value != "" {
				i.Date = s.Value
			}
		}
	}
	return i
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s, %s/%s)",
		Name, i.Version, i.Commit, i.Date, i.GoVersion, i.OS, i.Arch)
}
