package match

import (
	"reelgate/internal/catalog"
	"reelgate/internal/title"
)

// yearPenalty halves a candidate's score when both years are known and
// disagree beyond the tolerance. The penalty is soft: a very strong title
// match can still clear a low threshold.
const yearPenalty = 0.5

// Engine scores catalog candidates against a requested title.
type Engine struct {
	threshold     float64
	yearTolerance int
}

// Result is the availability verdict for one query. Best is nil when no
// candidates were scored.
type Result struct {
	Available bool
	Best      *catalog.Entry
	Score     float64
}

// NewEngine returns an engine that declares availability at or above
// threshold, tolerating release-year differences up to yearTolerance.
func NewEngine(threshold float64, yearTolerance int) *Engine {
	return &Engine{threshold: threshold, yearTolerance: yearTolerance}
}

// Decide scores every candidate against the query and returns the best.
// An empty candidate list short-circuits to unavailable without scoring.
// Candidates with an unknown year are never penalized.
func (e *Engine) Decide(queryTitle string, queryYear int, candidates []catalog.Entry) Result {
	if len(candidates) == 0 {
		return Result{}
	}

	canonicalQuery := title.Canonical(queryTitle)
	var best Result
	for i := range candidates {
		candidate := &candidates[i]
		score := CombinedRatio(canonicalQuery, title.Canonical(candidate.CleanedFilename))
		if queryYear > 0 && candidate.Year > 0 && absInt(queryYear-candidate.Year) > e.yearTolerance {
			score *= yearPenalty
		}
		if best.Best == nil || score > best.Score {
			best.Best = candidate
			best.Score = score
		}
	}
	best.Available = best.Score >= e.threshold
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
