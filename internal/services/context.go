package services

import "context"

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requesterIDKey   contextKey = "requester_id"
	eventKey         contextKey = "event"
)

// WithCorrelationID annotates context with a correlation identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation identifier if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(correlationIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequesterID annotates context with the acting requester.
func WithRequesterID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requesterIDKey, id)
}

// RequesterIDFromContext extracts the requester identifier if present.
func RequesterIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requesterIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEvent annotates context with the event kind being processed
// (search, admission, cancellation, ingest, decision).
func WithEvent(ctx context.Context, event string) context.Context {
	if event == "" {
		return ctx
	}
	return context.WithValue(ctx, eventKey, event)
}

// EventFromContext returns the event kind if present.
func EventFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(eventKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
