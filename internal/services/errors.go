package services

import (
	"context"
	"errors"
	"strings"
)

// Error taxonomy for the valuation pipeline. Source clients convert their
// transport and parsing failures into these before the aggregator sees them;
// the aggregator in turn never returns a Go error for an unavailable
// valuation, only a ValuationResult with Success=false.
var (
	// ErrInvalidQuery means the request is missing title or issue number.
	// Surfaced immediately, before any network call.
	ErrInvalidQuery = errors.New("title and issue number are required")

	// ErrSourceUnconfigured means the source has no credentials. The
	// aggregator skips the source and tries the next one.
	ErrSourceUnconfigured = errors.New("source is not configured")

	// ErrNotFound means the source was reached but had no match for the
	// comic. Kept distinct from transport failures so the aggregator can
	// prefer a "not found" message when every source fails.
	ErrNotFound = errors.New("no pricing data found for this comic")
)

// normalizeTransportError maps a network-layer failure onto text fit for
// display. Wrapped transport errors carry request URLs and dial internals
// that mean nothing to a user; the raw error still goes to the log.
func normalizeTransportError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "timeout"):
		return "the pricing service took too long to respond"
	default:
		return "pricing services are temporarily unreachable"
	}
}
