package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/medresearch/internal/keyword"
	"github.com/hyperjump/medresearch/internal/llm"
	"github.com/hyperjump/medresearch/internal/report"
	"github.com/hyperjump/medresearch/internal/research"
	"github.com/hyperjump/medresearch/internal/storage"
	"go.uber.org/zap"
)

const (
	statusHealthy    = "healthy"
	statusDegraded   = "degraded"
	modelUnavailable = "unavailable"

	defaultSearchLimit = 10
	maxSearchLimit     = 100
	defaultRunsLimit   = 20
)

var searchOptions = &keyword.SearchOptions{QueryBoost: 2, FuzzyEnabled: true, Fuzziness: 1}

type healthResponse struct {
	Status string            `json:"status"`
	Models map[string]string `json:"models"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	models := s.config.Models
	resp := healthResponse{
		Status: statusHealthy,
		Models: map[string]string{"orchestrator": models.Orchestrator, "medical": models.Specialist},
	}
	if !llm.Probe(r.Context(), s.deps.HTTPClient, models.BaseURL, models.HealthTimeout) {
		s.logger.Warn("model backend unreachable", zap.String("base_url", models.BaseURL))
		resp = healthResponse{
			Status: statusDegraded,
			Models: map[string]string{"orchestrator": modelUnavailable, "medical": modelUnavailable},
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := s.deps.Reports.List()
	if err != nil {
		s.logger.Error("status: list reports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"reports":    len(entries),
		"output_dir": s.deps.Reports.Dir(),
	}
	if s.deps.Index != nil {
		if n, err := s.deps.Index.DocCount(); err == nil {
			resp["indexed_reports"] = n
		}
	}
	if s.deps.Journal != nil {
		if n, err := s.deps.Journal.CountRuns(ctx); err == nil {
			resp["runs"] = n
		}
	}
	usage, err := storage.DiskUsage(s.deps.Reports.Dir(), s.config.Reports.IndexPath, s.config.Storage.DatabasePath)
	if err == nil {
		resp["disk_usage_bytes"] = usage.Bytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Reports.List()
	if err != nil {
		s.logger.Error("list reports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("listing reports", zap.String("dir", s.deps.Reports.Dir()), zap.Int("count", len(entries)))
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := s.deps.Reports.Load(id)
	if errors.Is(err, report.ErrNotFound) {
		s.logger.Warn("report not found", zap.String("id", id))
		s.respondError(w, http.StatusNotFound, "Report not found: "+id)
		return
	}
	if err != nil {
		s.logger.Error("load report failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, reportDetail{
		ID:         rep.ID,
		Query:      rep.Query,
		Timestamp:  rep.Timestamp,
		Content:    rep.Content,
		ModelsUsed: rep.ModelsUsed,
	})
}

type reportDetail struct {
	ID         string   `json:"id"`
	Query      string   `json:"query"`
	Timestamp  string   `json:"timestamp"`
	Content    string   `json:"content"`
	ModelsUsed []string `json:"models_used"`
}

func (s *Server) handleSearchReports(w http.ResponseWriter, r *http.Request) {
	if s.deps.Index == nil {
		s.respondError(w, http.StatusNotImplemented, "report search not enabled")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, ok := parseLimit(r, defaultSearchLimit)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxSearchLimit)
	s.logger.Debug("search request", zap.String("q", q), zap.Int("limit", limit))
	hits, err := s.deps.Index.Search(r.Context(), q, limit, searchOptions)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []keyword.Hit{}
	}
	s.respondJSON(w, http.StatusOK, hits)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Journal == nil {
		s.respondError(w, http.StatusNotImplemented, "run journal not enabled")
		return
	}
	limit, ok := parseLimit(r, defaultRunsLimit)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	runs, err := s.deps.Journal.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*storage.Run{}
	}
	s.respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Researcher == nil {
		s.respondError(w, http.StatusServiceUnavailable, "research agent is not available")
		return
	}
	var req research.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		var verr *research.ValidationError
		msg := err.Error()
		if errors.As(err, &verr) {
			msg = verr.Message
		}
		s.respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	runID := research.NewRunID()
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Run-ID", runID)
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	_ = rc.Flush()
	sink := research.SinkFunc(func(e research.Event) error {
		if err := research.WriteSSE(w, e); err != nil {
			return err
		}
		return rc.Flush()
	})

	s.logger.Info("research request", zap.String("run_id", runID), zap.String("query", req.Query))
	// A disconnected client must not abort the run: the report is still saved.
	s.deps.Researcher.Run(context.WithoutCancel(r.Context()), runID, req.Query, sink)
}

func parseLimit(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
