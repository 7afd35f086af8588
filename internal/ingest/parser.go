// Package ingest reads plain-text metric observations from local producers
// and hands them to a domain.Pusher.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sharkusmanch/graphite-forwarder/internal/domain"
)

// ParseError describes an input line that could not be parsed.
type ParseError struct {
	Line   string
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid metric line %q: %s", e.Line, e.Reason)
}

// ParseLine parses "<name> <value> [<unix_ms>]". It returns ok=false for
// blank lines and "#" comments.
func ParseLine(text string) (m domain.Metric, ok bool, err error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return domain.Metric{}, false, nil
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 2 || len(fields) > 3 {
		return domain.Metric{}, false, &ParseError{Line: text, Reason: fmt.Sprintf("expected 2 or 3 fields, got %d", len(fields))}
	}

	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return domain.Metric{}, false, &ParseError{Line: text, Reason: "value is not a number"}
	}

	var ms int64
	if len(fields) == 3 {
		ms, err = strconv.ParseInt(fields[2], 10, 64)
		if err != nil || ms < 0 {
			return domain.Metric{}, false, &ParseError{Line: text, Reason: "timestamp must be non-negative unix milliseconds"}
		}
	}

	return domain.NewMetric(fields[0], value, domain.TimeFromMillis(ms)), true, nil
}
