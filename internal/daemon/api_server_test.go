package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"reelgate/internal/config"
	"reelgate/internal/daemon"
	"reelgate/internal/logging"
	"reelgate/internal/requests"
	"reelgate/internal/testsupport"
	"reelgate/internal/tmdb"
)

type fakeSearcher struct {
	details map[int64]*tmdb.Details
}

func (f *fakeSearcher) SearchMovie(ctx context.Context, query string, page int) (*tmdb.Response, error) {
	results := make([]tmdb.Result, 0, len(f.details))
	for _, d := range f.details {
		results = append(results, tmdb.Result{ID: d.ID, Title: d.Title, ReleaseDate: d.ReleaseDate})
	}
	return &tmdb.Response{Page: 1, TotalPages: 1, TotalResults: len(results), Results: results}, nil
}

func (f *fakeSearcher) MovieDetails(ctx context.Context, movieID int64) (*tmdb.Details, error) {
	details, ok := f.details[movieID]
	if !ok {
		return nil, fmt.Errorf("movie %d not found", movieID)
	}
	return details, nil
}

func startDaemon(t *testing.T, cfg *config.Config, store *requests.Store) *daemon.Daemon {
	t.Helper()

	searcher := &fakeSearcher{details: map[int64]*tmdb.Details{
		42: {ID: 42, Title: "Movie Name", ReleaseDate: "2023-06-01"},
	}}
	d, err := daemon.New(cfg, store, logging.NewNop(), daemon.WithSearcher(searcher))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})
	return d
}

func apiURL(d *daemon.Daemon, path string) string {
	return "http://" + d.APIAddr() + path
}

func doJSON(t *testing.T, method, url string, body any, token string) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, buf.Bytes()
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("secret"))
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store)

	resp, _ := doJSON(t, http.MethodGet, apiURL(d, "/api/status"), nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, apiURL(d, "/api/status"), nil, "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, apiURL(d, "/api/status"), nil, "secret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Correlation-ID") == "" {
		t.Fatal("expected correlation id header")
	}
}

func TestCreateRequestAndQuota(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxPending(1))
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store)

	payload := map[string]any{"requester_id": "alice", "tmdb_id": 42}
	resp, body := doJSON(t, http.MethodPost, apiURL(d, "/api/requests"), payload, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	var created struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode created request: %v", err)
	}
	if created.Title != "Movie Name" || created.Status != "pending" {
		t.Fatalf("unexpected request %+v", created)
	}

	resp, body = doJSON(t, http.MethodPost, apiURL(d, "/api/requests"), payload, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 over quota, got %d: %s", resp.StatusCode, body)
	}
	var conflict struct {
		Error   string `json:"error"`
		Pending []struct {
			ID int64 `json:"id"`
		} `json:"pending"`
	}
	if err := json.Unmarshal(body, &conflict); err != nil {
		t.Fatalf("decode conflict: %v", err)
	}
	if len(conflict.Pending) != 1 || conflict.Pending[0].ID != created.ID {
		t.Fatalf("expected pending list with request %d, got %+v", created.ID, conflict)
	}
}

func TestCreateRequestRejectsAvailableMovie(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cat := testsupport.MustOpenCatalog(t, cfg)
	testsupport.SeedCatalog(t, cat, "Movie.Name.2023.mkv", "movie name 2023", 2023)
	d := startDaemon(t, cfg, store)

	payload := map[string]any{"requester_id": "alice", "tmdb_id": 42}
	resp, body := doJSON(t, http.MethodPost, apiURL(d, "/api/requests"), payload, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for available movie, got %d: %s", resp.StatusCode, body)
	}
	var decision struct {
		Available bool `json:"available"`
	}
	if err := json.Unmarshal(body, &decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if !decision.Available {
		t.Fatalf("expected available decision, got %s", body)
	}

	list, err := store.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("available movie must not create a request, got %d", len(list))
	}
}

func TestAvailabilityEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store)

	resp, body := doJSON(t, http.MethodGet, apiURL(d, "/api/movies/42/availability"), nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var decision struct {
		TMDBID    int64  `json:"tmdb_id"`
		Title     string `json:"title"`
		Available bool   `json:"available"`
	}
	if err := json.Unmarshal(body, &decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decision.TMDBID != 42 || decision.Title != "Movie Name" || decision.Available {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestIngestEndpointCompletesRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store)

	request := testsupport.NewPendingRequest(t, store, "alice", 42, "Movie Name", 2023)

	payload := map[string]string{"text": "Movie.Name.2023.TMDB-42.mkv"}
	resp, body := doJSON(t, http.MethodPost, apiURL(d, "/api/ingest"), payload, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var outcome struct {
		Path      string  `json:"path"`
		Completed []int64 `json:"completed"`
	}
	if err := json.Unmarshal(body, &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Path != "identifier" || len(outcome.Completed) != 1 || outcome.Completed[0] != request.ID {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	got, err := store.GetByID(context.Background(), request.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != requests.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
}

func TestSetStatusEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store)

	request := testsupport.NewPendingRequest(t, store, "alice", 42, "Movie Name", 2023)

	url := apiURL(d, fmt.Sprintf("/api/requests/%d/status", request.ID))
	resp, body := doJSON(t, http.MethodPost, url, map[string]string{"status": "pending"}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-terminal status, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, url, map[string]string{"status": "rejected", "reason": "duplicate"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var updated struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Status != "rejected" {
		t.Fatalf("expected rejected, got %q", updated.Status)
	}
}

func TestCancelEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store)

	request := testsupport.NewPendingRequest(t, store, "alice", 42, "Movie Name", 2023)

	url := apiURL(d, fmt.Sprintf("/api/requests/%d?requester_id=mallory", request.ID))
	resp, _ := doJSON(t, http.MethodDelete, url, nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for non-owner cancel, got %d", resp.StatusCode)
	}

	url = apiURL(d, fmt.Sprintf("/api/requests/%d?requester_id=alice", request.ID))
	resp, _ = doJSON(t, http.MethodDelete, url, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for owner cancel, got %d", resp.StatusCode)
	}
}
