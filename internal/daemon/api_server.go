package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelgate/internal/config"
	"reelgate/internal/logging"
	"reelgate/internal/requests"
	"reelgate/internal/services"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.protect(srv.handleStatus))
	mux.HandleFunc("/api/search", srv.protect(srv.handleSearch))
	mux.HandleFunc("/api/movies/", srv.protect(srv.handleAvailability))
	mux.HandleFunc("/api/requests", srv.protect(srv.handleRequests))
	mux.HandleFunc("/api/requests/", srv.protect(srv.handleRequestItem))
	mux.HandleFunc("/api/ingest", srv.protect(srv.handleIngest))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// protect stacks the correlation and auth middlewares on a handler.
func (s *apiServer) protect(next http.HandlerFunc) http.HandlerFunc {
	return s.authenticate(s.correlate(next))
}

// authenticate enforces the configured bearer token. An empty token leaves
// the API open, which is the default for localhost-only binds.
func (s *apiServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || presented != s.token {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// correlate attaches a correlation id to every request, honoring one the
// caller supplied.
func (s *apiServer) correlate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correlationID := strings.TrimSpace(r.Header.Get("X-Correlation-ID"))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", correlationID)
		ctx := services.WithCorrelationID(r.Context(), correlationID)
		next(w, r.WithContext(ctx))
	}
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, statusResponse{
		Running:        status.Running,
		PID:            status.PID,
		RequestsDBPath: status.RequestsDBPath,
		CatalogDBPath:  status.CatalogDBPath,
		LockFilePath:   status.LockFilePath,
		CatalogSize:    status.CatalogSize,
		Pending:        status.Requests.Pending,
		Completed:      status.Requests.Completed,
		Rejected:       status.Requests.Rejected,
		Total:          status.Requests.Total,
	})
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter required")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	resp, err := s.daemon.searcher.SearchMovie(r.Context(), query, page)
	if err != nil {
		// Metadata failures degrade to an empty result set.
		s.logWith(r.Context()).Warn("tmdb search failed", logging.String("query", query), logging.Error(err))
		s.writeJSON(w, http.StatusOK, searchResponse{Page: 1, Results: []searchResult{}})
		return
	}

	limit := s.daemon.cfg.TMDB.ResultsPerPage
	results := make([]searchResult, 0, limit)
	for _, result := range resp.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, searchResult{
			TMDBID:      result.ID,
			Title:       result.Title,
			Year:        result.Year(),
			Overview:    result.Overview,
			VoteAverage: result.VoteAverage,
			PosterPath:  result.PosterPath,
		})
	}
	s.writeJSON(w, http.StatusOK, searchResponse{
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		Results:    results,
	})
}

func (s *apiServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/movies/")
	idStr, ok := strings.CutSuffix(rest, "/availability")
	if !ok || idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	movieID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || movieID <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	decision := s.daemon.checker.Check(r.Context(), movieID)
	s.writeJSON(w, http.StatusOK, availabilityResponse{
		TMDBID:    decision.TMDBID,
		Title:     decision.Title,
		Year:      decision.Year,
		Available: decision.Available,
		Score:     decision.Score,
		Filename:  decision.Filename,
	})
}

func (s *apiServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRequests(w, r)
	case http.MethodPost:
		s.handleCreateRequest(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleListRequests(w http.ResponseWriter, r *http.Request) {
	var (
		list []*requests.Request
		err  error
	)
	if requesterID := strings.TrimSpace(r.URL.Query().Get("requester_id")); requesterID != "" {
		list, err = s.daemon.store.ListByRequester(r.Context(), requesterID)
	} else {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err = s.daemon.store.ListRecent(r.Context(), limit)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, requestListResponse{Requests: viewsOf(list)})
}

func (s *apiServer) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	requesterID := strings.TrimSpace(payload.RequesterID)
	if requesterID == "" || payload.TMDBID <= 0 {
		s.writeError(w, http.StatusBadRequest, "requester_id and tmdb_id required")
		return
	}
	ctx := services.WithRequesterID(r.Context(), requesterID)
	ctx = services.WithEvent(ctx, "admission")

	decision := s.daemon.checker.Check(ctx, payload.TMDBID)
	if decision.Title == "" {
		s.writeError(w, http.StatusBadGateway, "metadata lookup failed")
		return
	}
	if decision.Available {
		s.writeJSON(w, http.StatusOK, availabilityResponse{
			TMDBID:    decision.TMDBID,
			Title:     decision.Title,
			Year:      decision.Year,
			Available: true,
			Score:     decision.Score,
			Filename:  decision.Filename,
		})
		return
	}

	id, created, err := s.daemon.store.CreateIfUnderQuota(ctx, requesterID, payload.TMDBID, decision.Title, decision.Year)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !created {
		_, _, pending, quotaErr := s.daemon.store.CheckQuota(ctx, requesterID)
		if quotaErr != nil {
			s.logWith(ctx).Warn("quota snapshot failed", logging.Error(quotaErr))
		}
		s.writeJSON(w, http.StatusConflict, quotaExceededResponse{
			Error:   "pending request quota exceeded",
			Pending: viewsOf(pending),
		})
		return
	}

	request, err := s.daemon.store.GetByID(ctx, id)
	if err != nil || request == nil {
		s.writeError(w, http.StatusInternalServerError, "request not found after create")
		return
	}

	if logErr := s.daemon.store.LogActivity(ctx, requesterID, "request_created",
		fmt.Sprintf(`{"request_id":%d,"tmdb_id":%d}`, id, payload.TMDBID)); logErr != nil {
		s.logWith(ctx).Warn("activity log failed", logging.Error(logErr))
	}
	if err := s.daemon.notifier.NotifyRequestSubmitted(ctx, requesterID, decision.Title, decision.Year); err != nil {
		s.logWith(ctx).Warn("submit notification failed", logging.Error(err))
	}
	if err := s.daemon.notifier.NotifyOperatorNewRequest(ctx, requesterID, decision.Title, decision.Year, payload.TMDBID); err != nil {
		s.logWith(ctx).Warn("operator notification failed", logging.Error(err))
	}

	s.writeJSON(w, http.StatusCreated, viewOf(request))
}

func (s *apiServer) handleRequestItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "request not found")
		return
	}

	if idStr, ok := strings.CutSuffix(rest, "/status"); ok {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleSetRequestStatus(w, r, idStr)
		return
	}

	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleCancelRequest(w, r, rest)
}

func (s *apiServer) handleCancelRequest(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	requesterID := strings.TrimSpace(r.URL.Query().Get("requester_id"))
	if requesterID == "" {
		s.writeError(w, http.StatusBadRequest, "requester_id required")
		return
	}

	cancelled, err := s.daemon.store.Cancel(r.Context(), id, requesterID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !cancelled {
		s.writeError(w, http.StatusNotFound, "no matching pending request")
		return
	}

	if logErr := s.daemon.store.LogActivity(r.Context(), requesterID, "request_cancelled",
		fmt.Sprintf(`{"request_id":%d}`, id)); logErr != nil {
		s.logWith(r.Context()).Warn("activity log failed", logging.Error(logErr))
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

func (s *apiServer) handleSetRequestStatus(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	var payload setStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := requests.ParseStatus(payload.Status)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !status.IsTerminal() {
		s.writeError(w, http.StatusBadRequest, "only completed or rejected may be set")
		return
	}

	request, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if request == nil {
		s.writeError(w, http.StatusNotFound, "request not found")
		return
	}

	if _, err := s.daemon.store.SetStatus(r.Context(), id, status); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch status {
	case requests.StatusCompleted:
		if err := s.daemon.notifier.NotifyRequestCompleted(r.Context(), request.RequesterID, request.Title); err != nil {
			s.logWith(r.Context()).Warn("completion notification failed", logging.Error(err))
		}
	case requests.StatusRejected:
		if err := s.daemon.notifier.NotifyRequestRejected(r.Context(), request.RequesterID, request.Title, payload.Reason); err != nil {
			s.logWith(r.Context()).Warn("rejection notification failed", logging.Error(err))
		}
	}

	updated, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		s.writeError(w, http.StatusInternalServerError, "request not found after update")
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(updated))
}

func (s *apiServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text required")
		return
	}

	outcome, err := s.daemon.Ingest(r.Context(), payload.Text)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ingestResponse{
		Path:      string(outcome.Path),
		Completed: outcome.Completed,
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}

// logWith carries the request's correlation, requester, and event fields
// into every record.
func (s *apiServer) logWith(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, s.log())
}
