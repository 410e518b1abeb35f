package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Checker is implemented by handles that can verify the model is installed.
type Checker interface {
	Exists(ctx context.Context) error
}

// NewSpecialist returns specialist when it is usable, otherwise fallback.
// The check failure is logged as a warning; callers get a working handle either way.
func NewSpecialist(ctx context.Context, specialist Model, fallback Model, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, ok := specialist.(Checker)
	if !ok {
		return specialist
	}
	if err := c.Exists(ctx); err != nil {
		logger.Warn("specialist model unavailable, using orchestrator",
			zap.String("specialist", specialist.Name()),
			zap.String("fallback", fallback.Name()),
			zap.Error(err))
		return fallback
	}
	return specialist
}

// Probe sends a liveness GET to baseURL and reports whether it answered 200 within timeout.
func Probe(ctx context.Context, client *http.Client, baseURL string, timeout time.Duration) bool {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/"), nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
