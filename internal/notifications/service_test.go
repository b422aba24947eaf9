package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"reelgate/internal/config"
	"reelgate/internal/notifications"
	"reelgate/internal/testsupport"
)

type capturedRequest struct {
	path     string
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()

	var mu sync.Mutex
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedRequest{
			path:     r.URL.Path,
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), captured...)
	}
}

func newService(t *testing.T, userTopic, operatorTopic string) notifications.Service {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.UserTopic = userTopic
	cfg.Notifications.OperatorTopic = operatorTopic
	return notifications.NewService(cfg)
}

func TestNewServiceReturnsNoopWhenTopicsMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.UserTopic = ""
	cfg.Notifications.OperatorTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRequestCompleted(context.Background(), "alice", "Movie Name"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.NotifyError(context.Background(), io.EOF, "reconcile"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestRequestLifecycleNotificationsUseUserTopic(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := newService(t, server.URL+"/user", server.URL+"/ops")
	ctx := context.Background()

	if err := svc.NotifyRequestSubmitted(ctx, "alice", "Movie Name", 2023); err != nil {
		t.Fatalf("NotifyRequestSubmitted: %v", err)
	}
	if err := svc.NotifyRequestCompleted(ctx, "alice", "Movie Name"); err != nil {
		t.Fatalf("NotifyRequestCompleted: %v", err)
	}
	if err := svc.NotifyRequestRejected(ctx, "alice", "Movie Name", "duplicate"); err != nil {
		t.Fatalf("NotifyRequestRejected: %v", err)
	}

	got := captured()
	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(got))
	}
	for _, req := range got {
		if req.path != "/user" {
			t.Fatalf("lifecycle notification hit %q, want /user", req.path)
		}
	}
	if !strings.Contains(got[0].body, "Movie Name (2023)") {
		t.Fatalf("submitted message missing title/year: %q", got[0].body)
	}
	if got[1].priority != "high" {
		t.Fatalf("completion should be high priority, got %q", got[1].priority)
	}
	if !strings.Contains(got[2].body, "Reason: duplicate") {
		t.Fatalf("rejection message missing reason: %q", got[2].body)
	}
}

func TestOperatorNotificationsUseOperatorTopic(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := newService(t, server.URL+"/user", server.URL+"/ops")
	ctx := context.Background()

	if err := svc.NotifyOperatorNewRequest(ctx, "alice", "Movie Name", 2023, 42); err != nil {
		t.Fatalf("NotifyOperatorNewRequest: %v", err)
	}
	if err := svc.NotifyError(ctx, io.ErrUnexpectedEOF, "ingest"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}

	got := captured()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	for _, req := range got {
		if req.path != "/ops" {
			t.Fatalf("operator notification hit %q, want /ops", req.path)
		}
	}
	if !strings.Contains(got[0].body, "TMDB 42") {
		t.Fatalf("new-request message missing tmdb id: %q", got[0].body)
	}
}

func TestOperatorOnlyConfigurationDropsUserMessages(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := newService(t, "", server.URL+"/ops")
	ctx := context.Background()

	if err := svc.NotifyRequestCompleted(ctx, "alice", "Movie Name"); err != nil {
		t.Fatalf("NotifyRequestCompleted: %v", err)
	}
	if err := svc.NotifyError(ctx, io.EOF, "reconcile"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}

	got := captured()
	if len(got) != 1 {
		t.Fatalf("expected only the error delivery, got %d", len(got))
	}
	if got[0].path != "/ops" {
		t.Fatalf("error notification hit %q, want /ops", got[0].path)
	}
}

func TestSendSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	svc := newService(t, server.URL, "")
	if err := svc.NotifyRequestCompleted(context.Background(), "alice", "Movie Name"); err == nil {
		t.Fatal("expected error for non-2xx ntfy response")
	}
}
