package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// Listener accepts local TCP connections carrying metric lines and pushes
// every parsed metric to a domain.Pusher.
type Listener struct {
	listener net.Listener
	pusher   domain.Pusher
	logger   *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		l.logger = logger
	}
}

// NewListener starts listening on address (e.g. "127.0.0.1:2103"; ":0"
// picks a free port). Call Serve to start accepting.
func NewListener(address string, pusher domain.Pusher, opts ...ListenerOption) (*Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		listener: ln,
		pusher:   pusher,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Address returns the listening address in "host:port" format.
func (l *Listener) Address() string {
	return l.listener.Addr().String()
}

// Stats returns the totals across all connections, open ones included.
func (l *Listener) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Serve accepts connections until ctx is cancelled or Close is called.
// It waits for open connections to finish before returning.
func (l *Listener) Serve(ctx context.Context) error {
	l.logger.Info("accepting metric lines", "address", l.Address())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = l.listener.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.handle(ctx, conn)
		}()
	}
}

func (l *Listener) handle(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	logger := l.logger.With("remote", remote)

	// Unblock the read when the listener shuts down.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	logger.Debug("producer connected")
	var stats Stats
	err := consume(ctx, conn, l.pusher, logger, func(o Outcome) {
		stats.Record(o)

		l.mu.Lock()
		l.stats.Record(o)
		l.mu.Unlock()
	})
	if err != nil && ctx.Err() == nil {
		logger.Warn("producer connection failed", "error", err)
	}
	logger.Debug("producer disconnected",
		"accepted", stats.Accepted,
		"invalid", stats.Invalid,
		"rejected", stats.Rejected,
	)
}

// Close stops accepting connections.
func (l *Listener) Close() error {
	return l.listener.Close()
}
