// Package graphite forwards metric lines to a Graphite plaintext collector
// over a single reusable TCP connection.
package graphite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// ConnState is the lifecycle state of the collector connection.
type ConnState int32

const (
	// StateDisconnected means no connection is cached.
	StateDisconnected ConnState = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateConnected means a live connection is cached.
	StateConnected
)

// String returns the string representation of the state.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// DialFunc opens a stream connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// dialAttempt is shared by every caller that arrives while a dial is running.
type dialAttempt struct {
	done chan struct{}
	conn net.Conn
	err  error
}

// ConnManager owns at most one live connection to the collector. It dials
// lazily, hands the cached connection to every caller, and forgets it as soon
// as it closes, errors, or sits idle for longer than the socket timeout.
type ConnManager struct {
	address string
	timeout time.Duration
	logger  domain.Logger
	dial    DialFunc

	mu      sync.Mutex
	state   ConnState
	conn    net.Conn
	idle    *time.Timer
	attempt *dialAttempt
}

// NewConnManager creates a ConnManager for address ("host:port"). A zero
// timeout disables both the dial timeout and the idle timeout.
func NewConnManager(address string, timeout time.Duration, logger domain.Logger) *ConnManager {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	dialer := &net.Dialer{Timeout: timeout}
	return &ConnManager{
		address: address,
		timeout: timeout,
		logger:  logger,
		dial:    dialer.DialContext,
	}
}

// Address returns the collector address.
func (m *ConnManager) Address() string {
	return m.address
}

// State returns the current connection state.
func (m *ConnManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Acquire returns the cached connection, dialing a new one if none is live.
// Callers arriving while a dial is in progress wait for that dial. The dial
// itself is bounded only by the socket timeout; ctx limits how long this
// caller waits, so one caller giving up never fails the others.
func (m *ConnManager) Acquire(ctx context.Context) (net.Conn, error) {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		conn := m.conn
		m.mu.Unlock()
		return conn, nil

	case StateConnecting:
		a := m.attempt
		m.mu.Unlock()
		return a.wait(ctx)
	}

	a := &dialAttempt{done: make(chan struct{})}
	m.attempt = a
	m.state = StateConnecting
	m.mu.Unlock()

	go func() {
		a.conn, a.err = m.connect(context.WithoutCancel(ctx))
		close(a.done)
	}()
	return a.wait(ctx)
}

func (a *dialAttempt) wait(ctx context.Context) (net.Conn, error) {
	select {
	case <-a.done:
		return a.conn, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// connect dials the collector and caches the result.
func (m *ConnManager) connect(ctx context.Context) (net.Conn, error) {
	conn, err := m.dial(ctx, "tcp", m.address)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			m.logger.Log(domain.SeverityWarn, fmt.Sprintf("Socket timed out connecting to %s", m.address))
		} else {
			m.logger.Log(domain.SeverityError, fmt.Sprintf("Socket error on %s: %v", m.address, err))
		}

		m.mu.Lock()
		m.state = StateDisconnected
		m.attempt = nil
		m.mu.Unlock()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	m.mu.Lock()
	m.conn = conn
	m.state = StateConnected
	m.attempt = nil
	if m.timeout > 0 {
		m.idle = time.AfterFunc(m.timeout, func() { m.idleTimeout(conn) })
	}
	m.mu.Unlock()

	go m.watch(conn)

	m.logger.Log(domain.SeverityDebug, fmt.Sprintf("Connected to %s", m.address))
	return conn, nil
}

// watch drains the read side until the connection closes, then forgets it.
// Graphite never writes back, so any read result means the stream is gone.
func (m *ConnManager) watch(conn net.Conn) {
	_, _ = io.Copy(io.Discard, conn)
	if m.forget(conn) {
		m.logger.Log(domain.SeverityDebug, fmt.Sprintf("Connection to %s closed", m.address))
	}
	_ = conn.Close()
}

func (m *ConnManager) idleTimeout(conn net.Conn) {
	m.logger.Log(domain.SeverityWarn, fmt.Sprintf("Socket to %s timed out after %s idle", m.address, m.timeout))
	m.Invalidate(conn)
}

// touch restarts the idle timer after activity on conn.
func (m *ConnManager) touch(conn net.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == conn && m.idle != nil {
		m.idle.Reset(m.timeout)
	}
}

// forget clears the cached connection if it is still conn.
func (m *ConnManager) forget(conn net.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != conn {
		return false
	}
	m.conn = nil
	m.state = StateDisconnected
	if m.idle != nil {
		m.idle.Stop()
		m.idle = nil
	}
	return true
}

// Invalidate closes conn and forgets it so the next Acquire dials again.
// Invalidating a connection that is no longer cached only closes it.
func (m *ConnManager) Invalidate(conn net.Conn) {
	if conn == nil {
		return
	}
	m.forget(conn)
	_ = conn.Close()
}

// Close closes the live connection, if any.
func (m *ConnManager) Close() error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	m.forget(conn)
	return conn.Close()
}
