package graphite

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// fakeCollector is a Graphite stand-in that records every line it receives.
type fakeCollector struct {
	listener net.Listener

	mu       sync.Mutex
	lines    []string
	conns    []net.Conn
	accepted int
}

func newFakeCollector(t *testing.T) *fakeCollector {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	c := &fakeCollector{listener: ln}
	go c.serve()
	t.Cleanup(c.Close)
	return c
}

func (c *fakeCollector) serve() {
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			return
		}
		c.mu.Lock()
		c.conns = append(c.conns, conn)
		c.accepted++
		c.mu.Unlock()

		go func() {
			scanner := bufio.NewScanner(conn)
			for scanner.Scan() {
				c.mu.Lock()
				c.lines = append(c.lines, strings.TrimRight(scanner.Text(), "\r"))
				c.mu.Unlock()
			}
		}()
	}
}

func (c *fakeCollector) Addr() string {
	return c.listener.Addr().String()
}

func (c *fakeCollector) HostPort(t *testing.T) (string, int) {
	t.Helper()
	return splitAddr(t, c.Addr())
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func (c *fakeCollector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *fakeCollector) Accepted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accepted
}

// DropConnections closes every accepted connection from the collector side.
func (c *fakeCollector) DropConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.conns {
		_ = conn.Close()
	}
	c.conns = nil
}

func (c *fakeCollector) Close() {
	_ = c.listener.Close()
	c.DropConnections()
}

// closedAddr returns an address nothing is listening on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// logRecorder collects log messages for assertions.
type logRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *logRecorder) Log(severity domain.Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, fmt.Sprintf("%s: %s", severity, message))
}

func (r *logRecorder) Contains(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}
