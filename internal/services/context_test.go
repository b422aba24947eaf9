package services_test

import (
	"context"
	"testing"

	"reelgate/internal/services"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.CorrelationIDFromContext(ctx); ok {
		t.Fatal("expected no correlation id on fresh context")
	}
	ctx = services.WithCorrelationID(ctx, "abc-123")
	id, ok := services.CorrelationIDFromContext(ctx)
	if !ok || id != "abc-123" {
		t.Fatalf("expected abc-123, got %q (ok=%v)", id, ok)
	}
}

func TestWithCorrelationIDEmptyIsNoop(t *testing.T) {
	ctx := services.WithCorrelationID(context.Background(), "")
	if _, ok := services.CorrelationIDFromContext(ctx); ok {
		t.Fatal("empty correlation id should not be stored")
	}
}

func TestRequesterIDRoundTrip(t *testing.T) {
	ctx := services.WithRequesterID(context.Background(), "alice")
	id, ok := services.RequesterIDFromContext(ctx)
	if !ok || id != "alice" {
		t.Fatalf("expected alice, got %q (ok=%v)", id, ok)
	}
}

func TestEventRoundTrip(t *testing.T) {
	ctx := services.WithEvent(context.Background(), "ingest")
	event, ok := services.EventFromContext(ctx)
	if !ok || event != "ingest" {
		t.Fatalf("expected ingest, got %q (ok=%v)", event, ok)
	}
}
