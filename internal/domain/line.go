// Package domain defines core business types and interfaces.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// Line is a single formatted metric record in Graphite plaintext format:
// "<name> <value> <unix_seconds>" followed by the platform line terminator.
type Line string

// String returns the line including its terminator.
func (l Line) String() string {
	return string(l)
}

// Metric is a single observation before it is formatted for the wire.
type Metric struct {
	Name      string
	Value     float64
	Timestamp time.Time
}

// NewMetric creates a Metric. A zero timestamp is replaced by the current time.
func NewMetric(name string, value float64, ts time.Time) Metric {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Metric{
		Name:      name,
		Value:     value,
		Timestamp: ts,
	}
}

// Line formats the metric for the wire. Seconds are truncated, not rounded.
func (m Metric) Line() Line {
	var b strings.Builder
	b.Grow(len(m.Name) + 32)
	b.WriteString(m.Name)
	b.WriteByte(' ')
	b.WriteString(FormatValue(m.Value))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(m.Timestamp.Unix(), 10))
	b.WriteString(EOL)
	return Line(b.String())
}

// FormatLine is shorthand for NewMetric(name, value, ts).Line().
func FormatLine(name string, value float64, ts time.Time) Line {
	return NewMetric(name, value, ts).Line()
}

// FormatValue renders a value in plain decimal using the fewest digits that
// round-trip, so 0.42 stays "0.42" and 1e6 becomes "1000000".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TimeFromMillis converts a Unix timestamp in milliseconds to a time.Time.
// Zero maps to the zero time so callers can fall back to "now".
func TimeFromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
