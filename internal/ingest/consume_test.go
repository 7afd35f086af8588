package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkusmanch/graphite-forwarder/internal/graphite"
)

func TestConsume(t *testing.T) {
	input := strings.Join([]string{
		"# header",
		"a 1 1700000000000",
		"",
		"broken",
		"b 2 1700000001000",
	}, "\n")
	pusher := &graphite.MockPusher{}

	stats, err := Consume(context.Background(), strings.NewReader(input), pusher, nil)

	require.NoError(t, err)
	assert.Equal(t, Stats{Accepted: 2, Skipped: 2, Invalid: 1}, stats)

	pushed := pusher.Pushed()
	require.Len(t, pushed, 2)
	assert.Equal(t, "a", pushed[0].Name)
	assert.Equal(t, "b", pushed[1].Name)
	assert.Equal(t, int64(1700000001), pushed[1].Timestamp.Unix())
}

func TestConsume_RejectedPushesAreCounted(t *testing.T) {
	pusher := &graphite.MockPusher{
		PushFunc: func(name string, value float64, ts time.Time) error {
			if name == "full" {
				return graphite.ErrCapacityExceeded
			}
			return nil
		},
	}

	stats, err := Consume(context.Background(), strings.NewReader("ok 1\nfull 2\nok 3\n"), pusher, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 1, stats.Rejected)
	assert.Len(t, pusher.Pushed(), 2)
}

func TestConsume_LineTooLong(t *testing.T) {
	input := "name " + strings.Repeat("1", maxLineLength+1) + "\n"

	_, err := Consume(context.Background(), strings.NewReader(input), &graphite.MockPusher{}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read metric lines")
}

func TestConsume_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := Consume(ctx, strings.NewReader("a 1\n"), &graphite.MockPusher{}, nil)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, stats.Accepted)
}

func TestStats_Record(t *testing.T) {
	var s Stats
	for _, o := range []Outcome{OutcomeAccepted, OutcomeAccepted, OutcomeSkipped, OutcomeInvalid, OutcomeRejected, Outcome(99)} {
		s.Record(o)
	}

	assert.Equal(t, Stats{Accepted: 2, Skipped: 1, Invalid: 1, Rejected: 1}, s)
}
