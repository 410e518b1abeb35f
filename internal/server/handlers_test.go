package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperjump/medresearch/internal/config"
	"github.com/hyperjump/medresearch/internal/keyword"
	"github.com/hyperjump/medresearch/internal/report"
	"github.com/hyperjump/medresearch/internal/research"
	"github.com/hyperjump/medresearch/internal/storage"
	"go.uber.org/zap"
)

type fakeResearcher struct {
	events []research.Event
	ctx    context.Context
	runID  string
	query  string
}

func (f *fakeResearcher) Run(ctx context.Context, runID, query string, sink research.Sink) {
	f.ctx, f.runID, f.query = ctx, runID, query
	for _, e := range f.events {
		_ = sink.Send(e)
	}
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Reports.OutputDir = t.TempDir()
	cfg.Models.BaseURL = baseURL
	cfg.Models.HealthTimeout = time.Second
	return cfg
}

func seedStore(t *testing.T, dir string) *report.Store {
	t.Helper()
	store := report.NewStore(dir)
	drafts := []report.Draft{
		{Query: "Metformin and lactic acidosis", Body: "# Metformin\n\nBody one.", ModelsUsed: []string{"qwen3:latest"},
			Timestamp: time.Date(2026, 1, 14, 9, 0, 0, 0, time.UTC)},
		{Query: "Statins in elderly patients", Body: "# Statins\n\nBody two.", ModelsUsed: []string{"qwen3:latest", "medgemma"},
			Timestamp: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)},
	}
	for _, d := range drafts {
		if _, err := store.Save(d); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	return store
}

func newTestServer(t *testing.T, deps Deps) (*Server, *config.Config) {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backend.Close)
	cfg := testConfig(t, backend.URL)
	if deps.Reports == nil {
		deps.Reports = seedStore(t, cfg.Reports.OutputDir)
	}
	return NewServer(cfg, deps, zap.NewNop()), cfg
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	w := do(t, srv.Handler(), http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var got healthResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := healthResponse{Status: "healthy", Models: map[string]string{
		"orchestrator": "qwen3:latest", "medical": "MedAIBase/MedGemma1.0:4b",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleHealth_degraded(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()
	cfg := testConfig(t, backend.URL)
	srv := NewServer(cfg, Deps{Reports: report.NewStore(cfg.Reports.OutputDir)}, nil)

	w := do(t, srv.Handler(), http.MethodGet, "/api/health", "")
	var got healthResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := healthResponse{Status: "degraded", Models: map[string]string{
		"orchestrator": "unavailable", "medical": "unavailable",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleListReports(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	w := do(t, srv.Handler(), http.MethodGet, "/api/reports", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var got []map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := []map[string]string{
		{"id": "2026-01-15_statins-in-elderly-patients", "query": "Statins in elderly patients", "timestamp": "2026-01-15T10:00:00+00:00"},
		{"id": "2026-01-14_metformin-and-lactic-acidosis", "query": "Metformin and lactic acidosis", "timestamp": "2026-01-14T09:00:00+00:00"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reports mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleListReports_emptyDir(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	srv := NewServer(cfg, Deps{Reports: report.NewStore(cfg.Reports.OutputDir + "/missing")}, nil)
	w := do(t, srv.Handler(), http.MethodGet, "/api/reports", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body: got %s", got)
	}
}

func TestHandleGetReport(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	w := do(t, srv.Handler(), http.MethodGet, "/api/reports/2026-01-15_statins-in-elderly-patients", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var got reportDetail
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := reportDetail{
		ID:         "2026-01-15_statins-in-elderly-patients",
		Query:      "Statins in elderly patients",
		Timestamp:  "2026-01-15T10:00:00+00:00",
		Content:    "# Statins\n\nBody two.",
		ModelsUsed: []string{"qwen3:latest", "medgemma"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleGetReport_notFound(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	w := do(t, srv.Handler(), http.MethodGet, "/api/reports/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", w.Code)
	}
	if got := decodeError(t, w); got != "Report not found: nonexistent" {
		t.Errorf("error: got %q", got)
	}
}

func TestHandleSearchReports(t *testing.T) {
	idx, err := keyword.NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()
	_ = idx.Index(ctx, keyword.Document{ID: "a", Query: "Statins in elderly patients", Content: "statin therapy", Timestamp: "2026-01-15T10:00:00+00:00"})
	_ = idx.Index(ctx, keyword.Document{ID: "b", Query: "Metformin", Content: "lactic acidosis", Timestamp: "2026-01-14T09:00:00+00:00"})

	srv, _ := newTestServer(t, Deps{Index: idx})
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/api/reports/search?q=statins&limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var hits []keyword.Hit
	if err := json.NewDecoder(w.Body).Decode(&hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || hits[0].ID != "a" {
		t.Errorf("hits: got %+v", hits)
	}

	if w := do(t, h, http.MethodGet, "/api/reports/search", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/reports/search?q=x&limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d", w.Code)
	}
}

func TestHandleSearchReports_disabled(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	if w := do(t, srv.Handler(), http.MethodGet, "/api/reports/search?q=x", ""); w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleListRuns(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	if w := do(t, srv.Handler(), http.MethodGet, "/api/runs", ""); w.Code != http.StatusNotImplemented {
		t.Errorf("disabled: got %d", w.Code)
	}

	journal, err := storage.NewSQLiteStorage(t.TempDir() + "/runs.db")
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()
	ctx := context.Background()
	_ = journal.Begin(ctx, "run-1", "first")
	_ = journal.Succeed(ctx, "run-1", "2026-01-15_first.md")
	_ = journal.Begin(ctx, "run-2", "second")

	srv, _ = newTestServer(t, Deps{Journal: journal})
	w := do(t, srv.Handler(), http.MethodGet, "/api/runs?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var runs []storage.Run
	if err := json.NewDecoder(w.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs: got %d", len(runs))
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	w := do(t, srv.Handler(), http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["reports"] != float64(2) {
		t.Errorf("reports: got %v", got["reports"])
	}
	if b, _ := got["disk_usage_bytes"].(float64); b <= 0 {
		t.Errorf("disk_usage_bytes: got %v", got["disk_usage_bytes"])
	}
}

func TestHandleResearch_streamsEvents(t *testing.T) {
	fake := &fakeResearcher{events: []research.Event{
		{Type: research.EventProgress, Data: "Starting research..."},
		{Type: research.EventResult, Data: "# Report", Filename: "2026-01-15_q.md"},
	}}
	srv, _ := newTestServer(t, Deps{Researcher: fake})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/research", "application/json", strings.NewReader(`{"query":"statins"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type: got %q", ct)
	}
	if resp.Header.Get("X-Run-ID") == "" {
		t.Error("missing X-Run-ID header")
	}

	var got []research.Event
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		e, ok, err := research.ParseSSELine(sc.Text())
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			got = append(got, e)
		}
	}
	if diff := cmp.Diff(fake.events, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if fake.query != "statins" || fake.runID != resp.Header.Get("X-Run-ID") {
		t.Errorf("run: id %q query %q", fake.runID, fake.query)
	}
	if fake.ctx.Done() != nil {
		t.Error("run context should not be cancelled with the request")
	}
}

func TestHandleResearch_rejectsBeforeStreaming(t *testing.T) {
	fake := &fakeResearcher{}
	srv, _ := newTestServer(t, Deps{Researcher: fake})
	h := srv.Handler()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty query", `{"query":""}`, "Query must not be empty"},
		{"whitespace query", `{"query":"   \n"}`, "Query must not be empty"},
		{"missing query", `{}`, "Query must not be empty"},
		{"invalid json", `{"query":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/research", tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status: got %d", w.Code)
			}
			if got := decodeError(t, w); got != tt.want {
				t.Errorf("error: got %q want %q", got, tt.want)
			}
		})
	}
	if fake.runID != "" {
		t.Error("run started for an invalid request")
	}
}

func TestHandleResearch_unavailable(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	w := do(t, srv.Handler(), http.MethodPost, "/api/research", `{"query":"q"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})
	r := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin: got %q", got)
	}
}
