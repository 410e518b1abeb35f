package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "data", "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorage_lifecycle(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.Begin(ctx, "run-1", "effects of caffeine"); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusRunning || got.Query != "effects of caffeine" || got.FinishedAt != nil {
		t.Errorf("unexpected running run: %+v", got)
	}

	if err := store.Succeed(ctx, "run-1", "2026-01-15_effects-of-caffeine.md"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetRun(ctx, "run-1")
	if got.Status != StatusSucceeded || got.Filename != "2026-01-15_effects-of-caffeine.md" {
		t.Errorf("unexpected succeeded run: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}

	if err := store.Begin(ctx, "run-2", "broken"); err != nil {
		t.Fatal(err)
	}
	if err := store.Fail(ctx, "run-2", "model crashed"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetRun(ctx, "run-2")
	if got.Status != StatusFailed || got.Error != "model crashed" || got.Filename != "" {
		t.Errorf("unexpected failed run: %+v", got)
	}

	n, err := store.CountRuns(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountRuns = %d, %v", n, err)
	}
}

func TestSQLiteStorage_ListRunsNewestFirst(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		if err := store.Begin(ctx, id, "q"); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("unexpected order: %+v", runs)
	}
	all, _ := store.ListRuns(ctx, 0)
	if len(all) != 3 {
		t.Errorf("expected 3 runs, got %d", len(all))
	}
}

func TestSQLiteStorage_notFound(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun: expected ErrRunNotFound, got %v", err)
	}
	if err := store.Succeed(ctx, "missing", "x.md"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Succeed: expected ErrRunNotFound, got %v", err)
	}
}

func TestSQLiteStorage_duplicateBegin(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	if err := store.Begin(ctx, "dup", "q"); err != nil {
		t.Fatal(err)
	}
	if err := store.Begin(ctx, "dup", "q"); err == nil {
		t.Error("expected primary key violation")
	}
}
