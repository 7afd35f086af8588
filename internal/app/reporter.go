// Package app reports the forwarder's own health as metric lines.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// PrefixRoot is the first path segment of every self-reported metric.
const PrefixRoot = "graphite_forwarder"

// Reporter turns Health snapshots into metric lines and pushes them back
// through the forwarder it describes.
type Reporter struct {
	pusher  domain.Pusher
	collect func() domain.Health
	prefix  string
	logger  *slog.Logger
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithPrefix sets the metric path prefix. An empty prefix keeps the default.
func WithPrefix(prefix string) ReporterOption {
	return func(r *Reporter) {
		if prefix != "" {
			r.prefix = strings.TrimSuffix(prefix, ".")
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = l
	}
}

// NewReporter creates a Reporter that reads state from collect.
func NewReporter(pusher domain.Pusher, collect func() domain.Health, opts ...ReporterOption) *Reporter {
	hostname, _ := os.Hostname()

	r := &Reporter{
		pusher:  pusher,
		collect: collect,
		prefix:  DefaultPrefix(hostname),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// DefaultPrefix returns "graphite_forwarder.<host>", with dots in the host
// name replaced so it stays a single path segment.
func DefaultPrefix(hostname string) string {
	host := strings.NewReplacer(".", "_", " ", "_").Replace(hostname)
	if host == "" {
		host = "unknown"
	}
	return PrefixRoot + "." + host
}

// Prefix returns the metric path prefix.
func (r *Reporter) Prefix() string {
	return r.prefix
}

type point struct {
	name  string
	value float64
}

func points(h domain.Health) []point {
	up := 0.0
	if h.Up {
		up = 1
	}
	return []point{
		{"up", up},
		{"queue.length", float64(h.QueueLength)},
		{"ingest.accepted", float64(h.Accepted)},
		{"ingest.skipped", float64(h.Skipped)},
		{"ingest.invalid", float64(h.Invalid)},
		{"ingest.rejected", float64(h.Rejected)},
	}
}

// Report pushes one snapshot. up=false marks the final report.
func (r *Reporter) Report(up bool) error {
	h := r.collect()
	h.Up = up
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}

	for _, p := range points(h) {
		name := r.prefix + "." + p.name
		if err := r.pusher.PushAt(name, p.value, h.Timestamp); err != nil {
			return fmt.Errorf("failed to push %s: %w", name, err)
		}
	}

	r.logger.Debug("reported forwarder health",
		"prefix", r.prefix,
		"up", up,
		"queue_length", h.QueueLength,
	)
	return nil
}
