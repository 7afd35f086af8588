package graphite

import (
	"context"
	"sync"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// MockSender is a mock implementation of domain.Sender for testing.
type MockSender struct {
	SendFunc func(ctx context.Context, lines []domain.Line) error

	mu      sync.Mutex
	batches [][]domain.Line
}

// Send records the batch and calls the mock SendFunc.
func (m *MockSender) Send(ctx context.Context, lines []domain.Line) error {
	batch := make([]domain.Line, len(lines))
	copy(batch, lines)

	m.mu.Lock()
	m.batches = append(m.batches, batch)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, lines)
	}
	return nil
}

// Batches returns every batch passed to Send, in call order.
func (m *MockSender) Batches() [][]domain.Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]domain.Line, len(m.batches))
	copy(out, m.batches)
	return out
}

// Calls returns the number of Send calls so far.
func (m *MockSender) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// Ensure MockSender implements domain.Sender.
var _ domain.Sender = (*MockSender)(nil)

// MockPusher is a mock implementation of domain.Pusher for testing.
type MockPusher struct {
	PushFunc func(name string, value float64, ts time.Time) error

	mu     sync.Mutex
	pushed []domain.Metric
}

// Push records a metric stamped with the current time.
func (m *MockPusher) Push(name string, value float64) error {
	return m.PushAt(name, value, time.Time{})
}

// PushAt calls the mock PushFunc and records the metric if it succeeds.
func (m *MockPusher) PushAt(name string, value float64, ts time.Time) error {
	if m.PushFunc != nil {
		if err := m.PushFunc(name, value, ts); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushed = append(m.pushed, domain.NewMetric(name, value, ts))
	return nil
}

// Pushed returns every accepted metric, in push order.
func (m *MockPusher) Pushed() []domain.Metric {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Metric, len(m.pushed))
	copy(out, m.pushed)
	return out
}

// Ensure MockPusher implements domain.Pusher.
var _ domain.Pusher = (*MockPusher)(nil)
