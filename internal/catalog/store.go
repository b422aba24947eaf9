package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Entry is one catalog row. Year is zero when the source filename carried
// no recognizable release year.
type Entry struct {
	ID              int64
	Filename        string
	CleanedFilename string
	Year            int
}

// Store wraps the catalog database.
type Store struct {
	db   *sql.DB
	path string
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS movies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT NOT NULL,
    cleaned_filename TEXT NOT NULL,
    year INTEGER
);
CREATE INDEX IF NOT EXISTS idx_movies_cleaned ON movies(cleaned_filename);
`

// Open connects to the catalog database at path, creating the movies table
// when it does not exist yet.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("catalog path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply busy_timeout: %w", err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure catalog schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FindCandidates returns up to limit entries whose cleaned filename contains
// the given canonical substring. When year is non-zero, entries closest to
// that year sort first; shorter cleaned filenames break ties so the tightest
// matches surface. The result is a candidate pool, not a verdict; scoring is
// the caller's job.
func (s *Store) FindCandidates(ctx context.Context, canonical string, year, limit int) ([]Entry, error) {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	pattern := "%" + escapeLike(canonical) + "%"
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, filename, cleaned_filename, COALESCE(year, 0)
        FROM movies
        WHERE cleaned_filename LIKE ? ESCAPE '\'
        ORDER BY
            CASE WHEN ? > 0 AND year IS NOT NULL THEN ABS(year - ?) ELSE 9999 END,
            LENGTH(cleaned_filename)
        LIMIT ?`,
		pattern, year, year, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.Filename, &entry.CleanedFilename, &entry.Year); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return entries, nil
}

// Add inserts a catalog row and returns its id.
func (s *Store) Add(ctx context.Context, filename, cleanedFilename string, year int) (int64, error) {
	var yearValue any
	if year > 0 {
		yearValue = year
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO movies (filename, cleaned_filename, year) VALUES (?, ?, ?)",
		filename, cleanedFilename, yearValue)
	if err != nil {
		return 0, fmt.Errorf("insert catalog row: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog insert id: %w", err)
	}
	return id, nil
}

// Count returns the total number of catalog rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM movies").Scan(&count); err != nil {
		return 0, fmt.Errorf("count catalog rows: %w", err)
	}
	return count, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
