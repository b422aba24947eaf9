package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelgate/internal/config"
)

// Store manages request persistence backed by SQLite.
type Store struct {
	db         *sql.DB
	path       string
	maxPending int
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const requestColumns = "id, requester_id, tmdb_id, title, year, status, created_at, updated_at"

// Open initializes or connects to the request database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.RequestsDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, maxPending: cfg.Requests.MaxPending}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// MaxPending returns the configured per-requester pending quota.
func (s *Store) MaxPending() int {
	return s.maxPending
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// CheckQuota reports whether the requester may submit another request, the
// current pending count, and the most recent pending requests up to the
// quota. The check alone does not reserve a slot; CreateIfUnderQuota does.
func (s *Store) CheckQuota(ctx context.Context, requesterID string) (bool, int, []*Request, error) {
	ctx = ensureContext(ctx)

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM requests WHERE requester_id = ? AND status = ?",
		requesterID, StatusPending,
	).Scan(&count)
	if err != nil {
		return false, 0, nil, fmt.Errorf("count pending: %w", err)
	}

	pending, err := s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests
         WHERE requester_id = ? AND status = ?
         ORDER BY created_at DESC, id DESC LIMIT ?`,
		requesterID, StatusPending, s.maxPending)
	if err != nil {
		return false, 0, nil, err
	}

	return count < s.maxPending, count, pending, nil
}

// Create inserts a new pending request without checking the quota. Callers
// that need atomic admission use CreateIfUnderQuota instead.
func (s *Store) Create(ctx context.Context, requesterID string, tmdbID int64, title string, year int) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO requests (requester_id, tmdb_id, title, year, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		requesterID, tmdbID, title, nullableYear(year), StatusPending, timestamp, timestamp)
	if err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// CreateIfUnderQuota inserts a new pending request only when the requester
// is under quota, performing the count and insert in one transaction so
// concurrent submissions cannot overshoot. Returns (0, false, nil) when the
// quota is exhausted.
func (s *Store) CreateIfUnderQuota(ctx context.Context, requesterID string, tmdbID int64, title string, year int) (int64, bool, error) {
	ctx = ensureContext(ctx)

	var id int64
	var created bool
	err := retryOnBusy(ctx, func() error {
		id, created = 0, false

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin admission tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var count int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM requests WHERE requester_id = ? AND status = ?",
			requesterID, StatusPending,
		).Scan(&count); err != nil {
			return fmt.Errorf("count pending: %w", err)
		}
		if count >= s.maxPending {
			return tx.Commit()
		}

		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO requests (requester_id, tmdb_id, title, year, status, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			requesterID, tmdbID, title, nullableYear(year), StatusPending, timestamp, timestamp)
		if err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		insertID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit admission: %w", err)
		}
		id, created = insertID, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return id, created, nil
}

// Cancel deletes a pending request owned by requesterID. Returns false when
// no such request exists, including requests owned by someone else or
// already in a terminal status.
func (s *Store) Cancel(ctx context.Context, id int64, requesterID string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		"DELETE FROM requests WHERE id = ? AND requester_id = ? AND status = ?",
		id, requesterID, StatusPending)
	if err != nil {
		return false, fmt.Errorf("cancel request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetStatus stamps a request with the given status and refreshes
// updated_at. Re-applying the current status is allowed and reported as
// applied; monotonicity of transitions is the caller's contract. Returns
// false when the request does not exist.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) (bool, error) {
	if _, ok := statusSet[status]; !ok {
		return false, fmt.Errorf("unknown status %q", status)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		"UPDATE requests SET status = ?, updated_at = ? WHERE id = ?",
		status, timestamp, id)
	if err != nil {
		return false, fmt.Errorf("set status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("status rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetByID fetches a request by identifier, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Request, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return request, nil
}

// FindPendingByTMDBID returns all pending requests for a TMDB identifier,
// oldest first.
func (s *Store) FindPendingByTMDBID(ctx context.Context, tmdbID int64) ([]*Request, error) {
	return s.queryRequests(ensureContext(ctx),
		`SELECT `+requestColumns+` FROM requests
         WHERE status = ? AND tmdb_id = ?
         ORDER BY created_at, id`,
		StatusPending, tmdbID)
}

// ListPending returns up to limit pending requests, oldest first. A
// non-positive limit falls back to the default scan cap.
func (s *Store) ListPending(ctx context.Context, limit int) ([]*Request, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryRequests(ensureContext(ctx),
		`SELECT `+requestColumns+` FROM requests
         WHERE status = ?
         ORDER BY created_at, id LIMIT ?`,
		StatusPending, limit)
}

// ListRecent returns up to limit requests across all statuses, newest
// first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Request, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryRequests(ensureContext(ctx),
		`SELECT `+requestColumns+` FROM requests
         ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit)
}

// ListByRequester returns all requests owned by requesterID, newest first.
func (s *Store) ListByRequester(ctx context.Context, requesterID string) ([]*Request, error) {
	return s.queryRequests(ensureContext(ctx),
		`SELECT `+requestColumns+` FROM requests
         WHERE requester_id = ?
         ORDER BY created_at DESC, id DESC`,
		requesterID)
}

// Stats summarizes request counts per status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT status, COUNT(1) FROM requests GROUP BY status")
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += count
		switch Status(status) {
		case StatusPending:
			stats.Pending = count
		case StatusCompleted:
			stats.Completed = count
		case StatusRejected:
			stats.Rejected = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

// LogActivity records a requester action in the activity log. Best-effort
// from the caller's perspective; callers log failures and move on.
func (s *Store) LogActivity(ctx context.Context, requesterID, action, details string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(ctx,
		"INSERT INTO activity_log (requester_id, action, details, created_at) VALUES (?, ?, ?, ?)",
		requesterID, action, nullableString(details), timestamp)
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var result []*Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		result = append(result, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return result, nil
}

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		id          int64
		requesterID string
		tmdbID      int64
		title       string
		year        sql.NullInt64
		statusStr   string
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&id, &requesterID, &tmdbID, &title, &year, &statusStr, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	request := &Request{
		ID:          id,
		RequesterID: requesterID,
		TMDBID:      tmdbID,
		Title:       title,
		Status:      Status(statusStr),
	}
	if year.Valid {
		request.Year = int(year.Int64)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		request.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		request.UpdatedAt = updated
	}
	return request, nil
}

func nullableYear(year int) any {
	if year <= 0 {
		return nil
	}
	return year
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
