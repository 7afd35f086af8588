package ingest

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkusmanch/graphite-forwarder/internal/graphite"
)

func TestListener_Serve(t *testing.T) {
	pusher := &graphite.MockPusher{}
	l, err := NewListener("127.0.0.1:0", pusher)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	conn, err := net.Dial("tcp", l.Address())
	require.NoError(t, err)
	_, err = fmt.Fprint(conn, "cpu.load 0.42 1700000000000\nnot a metric line\nmem 1\n")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return l.Stats().Accepted == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, l.Stats().Invalid)

	pushed := pusher.Pushed()
	require.Len(t, pushed, 2)
	assert.Equal(t, "cpu.load", pushed[0].Name)
	assert.Equal(t, "mem", pushed[1].Name)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListener_Serve_ClosesOpenConnectionsOnShutdown(t *testing.T) {
	l, err := NewListener("127.0.0.1:0", &graphite.MockPusher{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	conn, err := net.Dial("tcp", l.Address())
	require.NoError(t, err)
	defer conn.Close()
	_, err = fmt.Fprint(conn, "a 1\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(l.pusher.(*graphite.MockPusher).Pushed()) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return with a producer still connected")
	}
}

func TestListener_Stats_CountsWhileConnectionIsOpen(t *testing.T) {
	l, err := NewListener("127.0.0.1:0", &graphite.MockPusher{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	conn, err := net.Dial("tcp", l.Address())
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 5; i++ {
		_, err = fmt.Fprintf(conn, "m %d\n", i)
		require.NoError(t, err)
	}
	_, err = fmt.Fprint(conn, "# note\nbad line here now\n")
	require.NoError(t, err)

	// The producer stays connected; totals must already reflect its lines.
	require.Eventually(t, func() bool { return l.Stats().Accepted == 5 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return l.Stats().Invalid == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, l.Stats().Skipped)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, Stats{Accepted: 5, Skipped: 1, Invalid: 1}, l.Stats())
}

func TestNewListener_AddressInUse(t *testing.T) {
	first, err := NewListener("127.0.0.1:0", &graphite.MockPusher{})
	require.NoError(t, err)
	defer first.Close()

	_, err = NewListener(first.Address(), &graphite.MockPusher{})
	assert.Error(t, err)
}
