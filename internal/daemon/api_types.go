package daemon

import (
	"time"

	"reelgate/internal/requests"
)

// statusResponse is the payload for GET /api/status.
type statusResponse struct {
	Running        bool   `json:"running"`
	PID            int    `json:"pid"`
	RequestsDBPath string `json:"requests_db_path"`
	CatalogDBPath  string `json:"catalog_db_path"`
	LockFilePath   string `json:"lock_file_path"`
	CatalogSize    int64  `json:"catalog_size"`
	Pending        int    `json:"pending"`
	Completed      int    `json:"completed"`
	Rejected       int    `json:"rejected"`
	Total          int    `json:"total"`
}

// searchResult is one entry in GET /api/search responses.
type searchResult struct {
	TMDBID      int64   `json:"tmdb_id"`
	Title       string  `json:"title"`
	Year        int     `json:"year,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
}

type searchResponse struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Results    []searchResult `json:"results"`
}

// availabilityResponse is the payload for availability checks.
type availabilityResponse struct {
	TMDBID    int64   `json:"tmdb_id"`
	Title     string  `json:"title"`
	Year      int     `json:"year,omitempty"`
	Available bool    `json:"available"`
	Score     float64 `json:"score"`
	Filename  string  `json:"filename,omitempty"`
}

// createRequestPayload is the body for POST /api/requests.
type createRequestPayload struct {
	RequesterID string `json:"requester_id"`
	TMDBID      int64  `json:"tmdb_id"`
}

// setStatusPayload is the body for POST /api/requests/{id}/status.
type setStatusPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ingestPayload is the body for POST /api/ingest.
type ingestPayload struct {
	Text string `json:"text"`
}

type ingestResponse struct {
	Path      string  `json:"path"`
	Completed []int64 `json:"completed"`
}

// requestView is the JSON shape of a request record.
type requestView struct {
	ID          int64     `json:"id"`
	RequesterID string    `json:"requester_id"`
	TMDBID      int64     `json:"tmdb_id"`
	Title       string    `json:"title"`
	Year        int       `json:"year,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type requestListResponse struct {
	Requests []requestView `json:"requests"`
}

type quotaExceededResponse struct {
	Error   string        `json:"error"`
	Pending []requestView `json:"pending"`
}

func viewOf(request *requests.Request) requestView {
	return requestView{
		ID:          request.ID,
		RequesterID: request.RequesterID,
		TMDBID:      request.TMDBID,
		Title:       request.Title,
		Year:        request.Year,
		Status:      string(request.Status),
		CreatedAt:   request.CreatedAt,
		UpdatedAt:   request.UpdatedAt,
	}
}

func viewsOf(list []*requests.Request) []requestView {
	views := make([]requestView, 0, len(list))
	for _, request := range list {
		views = append(views, viewOf(request))
	}
	return views
}
