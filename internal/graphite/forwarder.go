package graphite

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// Default forwarder settings.
const (
	DefaultSocketTimeout  = 300 * time.Second
	DefaultReconnectDelay = time.Second
	DefaultQueueSizeLimit = 10_000_000
	DefaultChunkSize      = 200
)

// Forwarder queues metric lines and drains them to the collector in order.
//
// Push never blocks on the network. Each push wakes the drain loop started by
// Run; pushes that arrive before the loop gets around to it share one wake-up
// and end up in the same batch. A batch is removed from the queue only after
// the sender reports success, so a failed batch is retried whole after the
// reconnect delay, forever.
type Forwarder struct {
	address        string
	socketTimeout  time.Duration
	reconnectDelay time.Duration
	queueSizeLimit int
	chunkSize      int
	logger         domain.Logger
	sender         domain.Sender
	conns          *ConnManager

	mu      sync.Mutex
	queue   []domain.Line
	running atomic.Bool
	wake    chan struct{}
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithSocketTimeout sets the connect, write and idle timeout.
func WithSocketTimeout(d time.Duration) Option {
	return func(f *Forwarder) {
		f.socketTimeout = d
	}
}

// WithReconnectDelay sets the wait after a failed batch.
func WithReconnectDelay(d time.Duration) Option {
	return func(f *Forwarder) {
		f.reconnectDelay = d
	}
}

// WithQueueSizeLimit sets the number of queued lines above which Push fails.
func WithQueueSizeLimit(n int) Option {
	return func(f *Forwarder) {
		f.queueSizeLimit = n
	}
}

// WithChunkSize sets the maximum number of lines sent per batch.
func WithChunkSize(n int) Option {
	return func(f *Forwarder) {
		f.chunkSize = n
	}
}

// WithLogger sets the diagnostic sink. A nil logger discards messages.
func WithLogger(l domain.Logger) Option {
	return func(f *Forwarder) {
		f.logger = l
	}
}

// WithSender replaces the TCP sender.
func WithSender(s domain.Sender) Option {
	return func(f *Forwarder) {
		f.sender = s
	}
}

// NewForwarder creates a Forwarder for the collector at host:port.
func NewForwarder(host string, port int, opts ...Option) *Forwarder {
	f := &Forwarder{
		address:        net.JoinHostPort(host, strconv.Itoa(port)),
		socketTimeout:  DefaultSocketTimeout,
		reconnectDelay: DefaultReconnectDelay,
		queueSizeLimit: DefaultQueueSizeLimit,
		chunkSize:      DefaultChunkSize,
		logger:         domain.NewSlogLogger(nil),
		wake:           make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.chunkSize < 1 {
		f.chunkSize = 1
	}
	if f.logger == nil {
		f.logger = domain.NopLogger{}
	}

	if f.sender == nil {
		f.conns = NewConnManager(f.address, f.socketTimeout, f.logger)
		f.sender = NewLineSender(f.conns, f.socketTimeout)
	}

	return f
}

// Address returns the collector address.
func (f *Forwarder) Address() string {
	return f.address
}

// Push enqueues a metric stamped with the current time.
func (f *Forwarder) Push(name string, value float64) error {
	return f.PushAt(name, value, time.Time{})
}

// PushAt enqueues a metric with timestamp ts; a zero ts means now.
// It fails with ErrCapacityExceeded when the queue is already over its limit.
func (f *Forwarder) PushAt(name string, value float64, ts time.Time) error {
	f.mu.Lock()
	if n := len(f.queue); n > f.queueSizeLimit {
		f.mu.Unlock()
		return fmt.Errorf("%w (%d queued)", ErrCapacityExceeded, n)
	}
	f.queue = append(f.queue, domain.FormatLine(name, value, ts))
	f.mu.Unlock()

	f.schedule()
	return nil
}

// Len returns the number of lines waiting to be sent.
func (f *Forwarder) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// schedule wakes the drain loop without blocking. A pending wake-up already
// covers everything pushed since.
func (f *Forwarder) schedule() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is cancelled. It returns ctx.Err().
func (f *Forwarder) Run(ctx context.Context) error {
	f.logger.Log(domain.SeverityInfo, fmt.Sprintf("Forwarding metrics to %s", f.address))

	defer func() {
		if f.conns != nil {
			_ = f.conns.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.wake:
		}

		for f.runCycle(ctx) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// runCycle sends one batch from the front of the queue. It reports false
// without doing anything when a cycle is already in flight or the queue is empty.
func (f *Forwarder) runCycle(ctx context.Context) bool {
	if !f.running.CompareAndSwap(false, true) {
		return false
	}
	defer f.running.Store(false)

	batch := f.snapshot()
	if len(batch) == 0 {
		return false
	}

	sent := 0
	if err := f.sender.Send(ctx, batch); err != nil {
		f.logger.Log(domain.SeverityError, err.Error())
		f.sleep(ctx, f.reconnectDelay)
	} else {
		f.removeFront(len(batch))
		sent = len(batch)
	}

	f.logger.Log(domain.SeverityLog, fmt.Sprintf("Sent %d line(s), %d still in queue", sent, f.Len()))
	return true
}

// snapshot copies up to chunkSize lines from the front of the queue.
func (f *Forwarder) snapshot() []domain.Line {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := min(len(f.queue), f.chunkSize)
	if n == 0 {
		return nil
	}
	batch := make([]domain.Line, n)
	copy(batch, f.queue[:n])
	return batch
}

// removeFront drops n lines from the front. Only the drain cycle removes
// lines, so the front is still the batch that was sent.
func (f *Forwarder) removeFront(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	clear(f.queue[:n])
	f.queue = f.queue[n:]
	if len(f.queue) == 0 {
		f.queue = nil
	}
}

func (f *Forwarder) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Ensure Forwarder implements domain.Pusher.
var _ domain.Pusher = (*Forwarder)(nil)
