package app

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is the time between health reports.
const DefaultInterval = time.Minute

// Scheduler runs a Reporter periodically.
type Scheduler struct {
	reporter        *Reporter
	interval        time.Duration
	reportOnStartup bool
	logger          *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval sets the report interval.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithReportOnStartup sets whether to report immediately on start.
func WithReportOnStartup(b bool) SchedulerOption {
	return func(s *Scheduler) {
		s.reportOnStartup = b
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(reporter *Reporter, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		reporter:        reporter,
		interval:        DefaultInterval,
		reportOnStartup: true,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.interval <= 0 {
		s.interval = DefaultInterval
	}

	return s
}

// Start reports every interval until ctx is cancelled, then sends a final
// report with up=0 and returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("health reporting started",
		"interval", s.interval,
		"prefix", s.reporter.Prefix(),
	)

	if s.reportOnStartup {
		s.report(true)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("pushing final health report before shutdown")
			s.report(false)
			return ctx.Err()

		case <-ticker.C:
			s.report(true)
		}
	}
}

func (s *Scheduler) report(up bool) {
	if err := s.reporter.Report(up); err != nil {
		s.logger.Warn("health report failed", "error", err)
	}
}
