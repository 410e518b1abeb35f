package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/medresearch/internal/research"
	"github.com/hyperjump/medresearch/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Research(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req research.Request
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "statins", req.Query)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("X-Run-ID", "run-42")
		_ = research.WriteSSE(w, research.Event{Type: research.EventProgress, Data: "Starting research..."})
		_, _ = w.Write([]byte(": keepalive\n\n"))
		_ = research.WriteSSE(w, research.Event{Type: research.EventResult, Data: "# Report", Filename: "f.md"})
	}))
	defer ts.Close()

	var seen []research.Event
	final, runID, err := NewClient(ts.URL+"/", nil).Research(context.Background(), "statins", func(e research.Event) {
		seen = append(seen, e)
	})
	require.NoError(t, err)
	assert.Equal(t, "run-42", runID)
	assert.Equal(t, research.Event{Type: research.EventResult, Data: "# Report", Filename: "f.md"}, final)
	assert.Len(t, seen, 2)
}

func TestClient_ResearchErrors(t *testing.T) {
	t.Run("validation error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"Query must not be empty"}`))
		}))
		defer ts.Close()
		_, _, err := NewClient(ts.URL, nil).Research(context.Background(), " ", nil)
		assert.EqualError(t, err, "server returned 422: Query must not be empty")
	})

	t.Run("stream without terminal event", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = research.WriteSSE(w, research.Event{Type: research.EventProgress, Data: "Starting research..."})
		}))
		defer ts.Close()
		_, _, err := NewClient(ts.URL, nil).Research(context.Background(), "q", nil)
		assert.ErrorIs(t, err, ErrNoTerminalEvent)
	})
}

func TestClient_SearchAndRuns(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/reports/search":
			assert.Equal(t, "heart failure", r.URL.Query().Get("q"))
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[{"id":"r1","query":"Heart failure","timestamp":"t","score":0.5}]`))
		case "/api/runs":
			w.WriteHeader(http.StatusNotImplemented)
			_, _ = w.Write([]byte(`{"error":"run journal not enabled"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()
	c := NewClient(ts.URL, ts.Client())

	hits, err := c.SearchReports(context.Background(), "heart failure", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "r1", hits[0].ID)

	var runs []*storage.Run
	runs, err = c.ListRuns(context.Background(), 0)
	assert.Nil(t, runs)
	assert.EqualError(t, err, "server returned 501: run journal not enabled")
}
