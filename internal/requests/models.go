package requests

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a movie request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

var allStatuses = []Status{
	StatusPending,
	StatusCompleted,
	StatusRejected,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus validates a user-supplied status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Request is one persisted movie request. Year is zero when unknown.
type Request struct {
	ID          int64
	RequesterID string
	TMDBID      int64
	Title       string
	Year        int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stats summarizes request counts per lifecycle status.
type Stats struct {
	Total     int
	Pending   int
	Completed int
	Rejected  int
}
