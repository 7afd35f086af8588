// Package main is the entry point for graphite-forwarder.
package main

import (
	"log/slog"
	"os"

	"github.com/sharkusmanch/graphite-forwarder/internal/cli"
	"github.com/sharkusmanch/graphite-forwarder/internal/platform"
)

func main() {
	// Check if running as a Windows service
	if platform.IsRunningAsService() {
		if err := platform.RunAsService(cli.RunService); err != nil {
			slog.Error("service failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Run CLI
	cli.Execute()
}
