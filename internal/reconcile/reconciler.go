package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"reelgate/internal/logging"
	"reelgate/internal/match"
	"reelgate/internal/notifications"
	"reelgate/internal/requests"
	"reelgate/internal/title"
)

// idPattern extracts an explicit TMDB identifier tag from an announcement,
// e.g. "Movie.Name.2023.TMDB-12345.mkv" or "tmdb: 12345".
var idPattern = regexp.MustCompile(`(?i)TMDB[:_\- ]*(\d+)`)

// Path names the strategy that resolved an announcement.
type Path string

const (
	PathIdentifier Path = "identifier"
	PathFuzzy      Path = "fuzzy"
	PathNone       Path = "none"
)

// Outcome reports what an announcement did.
type Outcome struct {
	Path      Path
	Completed []int64
}

// Store is the request persistence surface the reconciler needs.
type Store interface {
	FindPendingByTMDBID(ctx context.Context, tmdbID int64) ([]*requests.Request, error)
	ListPending(ctx context.Context, limit int) ([]*requests.Request, error)
	SetStatus(ctx context.Context, id int64, status requests.Status) (bool, error)
	LogActivity(ctx context.Context, requesterID, action, details string) error
}

// Reconciler matches announcements against pending requests and completes
// the ones satisfied.
type Reconciler struct {
	store         Store
	notifier      notifications.Service
	threshold     float64
	yearTolerance int
	scanLimit     int
	logger        *slog.Logger
}

// New builds a Reconciler. A nil logger falls back to a noop logger.
func New(store Store, notifier notifications.Service, threshold float64, yearTolerance, scanLimit int, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		store:         store,
		notifier:      notifier,
		threshold:     threshold,
		yearTolerance: yearTolerance,
		scanLimit:     scanLimit,
		logger:        logger,
	}
}

// HandleAnnouncement reconciles one announcement. A recognizable TMDB tag
// decides the outcome by itself; only untagged announcements fall back to
// fuzzy matching.
func (r *Reconciler) HandleAnnouncement(ctx context.Context, text string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Path: PathNone}, nil
	}

	if m := idPattern.FindStringSubmatch(text); m != nil {
		tmdbID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			// The tag is still authoritative even when its digits do not
			// parse; fuzzy-completing a different request would be worse
			// than doing nothing.
			r.logger.Warn("unusable tmdb tag in announcement",
				logging.String("tag", m[1]),
				logging.Error(err))
			return Outcome{Path: PathIdentifier}, nil
		}
		return r.reconcileByID(ctx, text, tmdbID)
	}

	return r.reconcileFuzzy(ctx, text)
}

func (r *Reconciler) reconcileByID(ctx context.Context, text string, tmdbID int64) (Outcome, error) {
	outcome := Outcome{Path: PathIdentifier}

	pending, err := r.store.FindPendingByTMDBID(ctx, tmdbID)
	if err != nil {
		return outcome, fmt.Errorf("find pending by tmdb id: %w", err)
	}

	for _, request := range pending {
		if r.complete(ctx, request, text) {
			outcome.Completed = append(outcome.Completed, request.ID)
		}
	}

	r.logger.Info("announcement reconciled by identifier",
		logging.Int64(logging.FieldTMDBID, tmdbID),
		logging.Int("completed", len(outcome.Completed)))
	return outcome, nil
}

func (r *Reconciler) reconcileFuzzy(ctx context.Context, text string) (Outcome, error) {
	outcome := Outcome{Path: PathNone}

	canonical := title.Canonical(text)
	if canonical == "" {
		return outcome, nil
	}
	year, hasYear := title.ExtractYear(text)

	pending, err := r.store.ListPending(ctx, r.scanLimit)
	if err != nil {
		return outcome, fmt.Errorf("list pending: %w", err)
	}

	for _, request := range pending {
		if hasYear && request.Year > 0 && absInt(year-request.Year) > r.yearTolerance {
			continue
		}
		score := match.TokenSetRatio(canonical, title.Canonical(request.Title))
		if score < r.threshold {
			continue
		}
		if r.complete(ctx, request, text) {
			outcome.Completed = append(outcome.Completed, request.ID)
		}
	}

	if len(outcome.Completed) > 0 {
		outcome.Path = PathFuzzy
	}
	r.logger.Info("announcement reconciled by fuzzy match",
		logging.String("canonical", canonical),
		logging.Int("scanned", len(pending)),
		logging.Int("completed", len(outcome.Completed)))
	return outcome, nil
}

// complete transitions one request to completed. Notification and activity
// logging are best-effort; only the status transition decides success.
func (r *Reconciler) complete(ctx context.Context, request *requests.Request, announcement string) bool {
	applied, err := r.store.SetStatus(ctx, request.ID, requests.StatusCompleted)
	if err != nil {
		r.logger.Error("complete request failed",
			logging.Int64(logging.FieldRequestID, request.ID),
			logging.Error(err))
		return false
	}
	if !applied {
		return false
	}

	if logErr := r.store.LogActivity(ctx, request.RequesterID, "request_completed",
		fmt.Sprintf(`{"request_id":%d,"announcement":%q}`, request.ID, announcement)); logErr != nil {
		r.logger.Warn("activity log failed",
			logging.Int64(logging.FieldRequestID, request.ID),
			logging.Error(logErr))
	}

	if r.notifier != nil {
		if notifyErr := r.notifier.NotifyRequestCompleted(ctx, request.RequesterID, request.Title); notifyErr != nil {
			r.logger.Warn("completion notification failed",
				logging.Int64(logging.FieldRequestID, request.ID),
				logging.Error(notifyErr))
		}
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
