// Package config handles application configuration loading and validation.
package config

import "time"

// Default configuration values.
const (
	DefaultCollectorHost = "localhost"
	DefaultCollectorPort = 2003

	DefaultSocketTimeout  = 300 * time.Second
	DefaultReconnectDelay = time.Second
	DefaultQueueSizeLimit = 10_000_000
	DefaultChunkSize      = 200

	DefaultIngestListen = "127.0.0.1:2103"

	DefaultSelfStatsInterval = time.Minute

	DefaultLogLevel     = LogLevelInfo
	DefaultLogMaxSizeMB = 10
)

// Log levels accepted by log.level.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)
