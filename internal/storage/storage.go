// Package storage persists the run journal and reports disk usage of storage paths.
package storage

import (
	"context"
	"errors"
	"time"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned by GetRun when no run has the given id.
var ErrRunNotFound = errors.New("run not found")

// Run is one research run as recorded in the journal.
type Run struct {
	ID         string     `json:"id"`
	Query      string     `json:"query"`
	Status     string     `json:"status"`
	Filename   string     `json:"filename,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Storage defines run journal operations.
type Storage interface {
	Begin(ctx context.Context, id, query string) error
	Succeed(ctx context.Context, id, filename string) error
	Fail(ctx context.Context, id, message string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	CountRuns(ctx context.Context) (int64, error)
	Close() error
}
