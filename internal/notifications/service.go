package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelgate/internal/config"
	"reelgate/internal/services"
)

const userAgent = "Reelgate/0.1.0"

// Service defines the notification surface exposed to the request and
// reconciliation flows.
type Service interface {
	NotifyRequestSubmitted(ctx context.Context, requesterID, title string, year int) error
	NotifyRequestCompleted(ctx context.Context, requesterID, title string) error
	NotifyRequestRejected(ctx context.Context, requesterID, title, reason string) error
	NotifyOperatorNewRequest(ctx context.Context, requesterID, title string, year int, tmdbID int64) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When neither topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	userTopic := strings.TrimSpace(cfg.Notifications.UserTopic)
	operatorTopic := strings.TrimSpace(cfg.Notifications.OperatorTopic)
	if userTopic == "" && operatorTopic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		userTopic:     userTopic,
		operatorTopic: operatorTopic,
		client:        &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	userTopic     string
	operatorTopic string
	client        *http.Client
}

func (n *ntfyService) NotifyRequestSubmitted(ctx context.Context, requesterID, title string, year int) error {
	data := payload{
		title:   "Reelgate - Request Submitted",
		message: fmt.Sprintf("Request recorded: %s for %s", describeMovie(title, year), strings.TrimSpace(requesterID)),
		tags:    []string{"reelgate", "request", "submitted"},
	}
	return n.send(ctx, n.userTopic, data)
}

func (n *ntfyService) NotifyRequestCompleted(ctx context.Context, requesterID, title string) error {
	data := payload{
		title:    "Reelgate - Request Complete",
		message:  fmt.Sprintf("Now available: %s (requested by %s)", strings.TrimSpace(title), strings.TrimSpace(requesterID)),
		tags:     []string{"reelgate", "request", "completed"},
		priority: "high",
	}
	return n.send(ctx, n.userTopic, data)
}

func (n *ntfyService) NotifyRequestRejected(ctx context.Context, requesterID, title, reason string) error {
	message := fmt.Sprintf("Request declined: %s (requested by %s)", strings.TrimSpace(title), strings.TrimSpace(requesterID))
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:   "Reelgate - Request Declined",
		message: message,
		tags:    []string{"reelgate", "request", "rejected"},
	}
	return n.send(ctx, n.userTopic, data)
}

func (n *ntfyService) NotifyOperatorNewRequest(ctx context.Context, requesterID, title string, year int, tmdbID int64) error {
	data := payload{
		title:   "Reelgate - New Request",
		message: fmt.Sprintf("%s requested %s (TMDB %d)", strings.TrimSpace(requesterID), describeMovie(title, year), tmdbID),
		tags:    []string{"reelgate", "request", "new"},
	}
	return n.send(ctx, n.operatorTopic, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelgate - Error",
		message:  builder.String(),
		tags:     []string{"reelgate", "error", "alert"},
		priority: "high",
	}
	// Errors are operator-facing; fall back to the user topic when no
	// operator topic is configured.
	endpoint := n.operatorTopic
	if endpoint == "" {
		endpoint = n.userTopic
	}
	return n.send(ctx, endpoint, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelgate - Test",
		message:  "Notification system test",
		tags:     []string{"reelgate", "test"},
		priority: "low",
	}
	if err := n.send(ctx, n.userTopic, data); err != nil {
		return err
	}
	if n.operatorTopic != n.userTopic {
		return n.send(ctx, n.operatorTopic, data)
	}
	return nil
}

func (n *ntfyService) send(ctx context.Context, endpoint string, data payload) error {
	if n == nil || n.client == nil || endpoint == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send ntfy notification: %w", services.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: ntfy returned %d: %s", services.ErrTransient, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func describeMovie(title string, year int) string {
	title = strings.TrimSpace(title)
	if year > 0 {
		return fmt.Sprintf("%s (%d)", title, year)
	}
	return title
}

type noopService struct{}

func (noopService) NotifyRequestSubmitted(context.Context, string, string, int) error { return nil }
func (noopService) NotifyRequestCompleted(context.Context, string, string) error      { return nil }
func (noopService) NotifyRequestRejected(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyOperatorNewRequest(context.Context, string, string, int, int64) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
