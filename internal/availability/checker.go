package availability

import (
	"context"
	"errors"
	"log/slog"

	"reelgate/internal/catalog"
	"reelgate/internal/logging"
	"reelgate/internal/match"
	"reelgate/internal/services"
	"reelgate/internal/title"
	"reelgate/internal/tmdb"
)

// CandidateFinder is the catalog surface the checker needs.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, canonical string, year, limit int) ([]catalog.Entry, error)
}

// Decision is the availability verdict for one movie.
type Decision struct {
	TMDBID    int64
	Title     string
	Year      int
	Available bool
	Score     float64
	Filename  string
}

// ErrNoResults indicates a title search returned nothing to check.
var ErrNoResults = errors.New("no search results")

// Checker wires the TMDB client, the catalog, and the match engine into
// one availability decision.
type Checker struct {
	searcher       tmdb.Searcher
	catalog        CandidateFinder
	engine         *match.Engine
	candidateLimit int
	logger         *slog.Logger
}

// NewChecker builds a Checker. A nil logger falls back to a noop logger.
func NewChecker(searcher tmdb.Searcher, finder CandidateFinder, engine *match.Engine, candidateLimit int, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Checker{
		searcher:       searcher,
		catalog:        finder,
		engine:         engine,
		candidateLimit: candidateLimit,
		logger:         logger,
	}
}

// Check decides availability for a TMDB movie id. Collaborator failures
// are logged and degrade to an unavailable decision.
func (c *Checker) Check(ctx context.Context, movieID int64) Decision {
	decision := Decision{TMDBID: movieID}

	details, err := c.searcher.MovieDetails(ctx, movieID)
	if err != nil {
		// Transient collaborator failures are expected noise; anything else
		// points at a wiring problem and deserves a louder record.
		level := slog.LevelError
		if services.IsTransient(err) {
			level = slog.LevelWarn
		}
		c.logger.Log(ctx, level, "movie details lookup failed",
			logging.Args(logging.Int64(logging.FieldTMDBID, movieID), logging.Error(err))...)
		return decision
	}
	decision.Title = details.Title
	decision.Year = details.Year()

	candidates, err := c.catalog.FindCandidates(ctx, title.Canonical(details.Title), decision.Year, c.candidateLimit)
	if err != nil {
		c.logger.Warn("catalog candidate lookup failed",
			logging.Int64(logging.FieldTMDBID, movieID),
			logging.Error(err))
		return decision
	}

	result := c.engine.Decide(details.Title, decision.Year, candidates)
	decision.Available = result.Available
	decision.Score = result.Score
	if result.Best != nil {
		decision.Filename = result.Best.Filename
	}

	c.logger.Debug("availability decided",
		logging.Int64(logging.FieldTMDBID, movieID),
		logging.Bool("available", decision.Available),
		logging.Float64(logging.FieldScore, decision.Score))
	return decision
}

// CheckTitle searches TMDB for the query and decides availability for the
// top result. Returns ErrNoResults when the search comes back empty.
func (c *Checker) CheckTitle(ctx context.Context, query string) (Decision, error) {
	resp, err := c.searcher.SearchMovie(ctx, query, 1)
	if err != nil {
		c.logger.Warn("title search failed", logging.String("query", query), logging.Error(err))
		return Decision{}, err
	}
	if len(resp.Results) == 0 {
		return Decision{}, ErrNoResults
	}
	return c.Check(ctx, resp.Results[0].ID), nil
}
