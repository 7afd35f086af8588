package domain

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		ts    time.Time
		want  string
	}{
		{"cpu.load", 0.42, time.UnixMilli(1700000000000), "cpu.load 0.42 1700000000"},
		{"requests", 12, time.Unix(1700000000, 0), "requests 12 1700000000"},
		{"temp", -3.5, time.Unix(1, 0), "temp -3.5 1"},
		{"big", 1e6, time.Unix(2, 0), "big 1000000 2"},
		{"truncated", 1, time.UnixMilli(1700000000999), "truncated 1 1700000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatLine(tt.name, tt.value, tt.ts)
			assert.Equal(t, Line(tt.want+EOL), got)
		})
	}
}

func TestFormatLine_ZeroTimestampUsesNow(t *testing.T) {
	before := time.Now().Unix()
	m := NewMetric("m", 1, time.Time{})
	after := time.Now().Unix()

	assert.GreaterOrEqual(t, m.Timestamp.Unix(), before)
	assert.LessOrEqual(t, m.Timestamp.Unix(), after)
}

func TestTimeFromMillis(t *testing.T) {
	assert.True(t, TimeFromMillis(0).IsZero())
	assert.Equal(t, int64(1700000000), TimeFromMillis(1700000000000).Unix())
}

func TestSeverity_Level(t *testing.T) {
	tests := []struct {
		severity Severity
		want     slog.Level
	}{
		{SeverityError, slog.LevelError},
		{SeverityWarn, slog.LevelWarn},
		{SeverityLog, slog.LevelInfo},
		{SeverityInfo, slog.LevelInfo},
		{SeverityDebug, slog.LevelDebug},
		{Severity("trace"), slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.severity.Level())
		})
	}
}

func TestSlogLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Log(SeverityWarn, "socket timed out")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="socket timed out"`)
	assert.Contains(t, out, "severity=warn")
}

func TestLoggerFunc(t *testing.T) {
	var got []string
	logger := LoggerFunc(func(severity Severity, message string) {
		got = append(got, severity.String()+":"+message)
	})

	logger.Log(SeverityError, "boom")

	assert.Equal(t, []string{"error:boom"}, got)
}
