// Package indexer keeps the report search index in sync with the report directory.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/medresearch/internal/keyword"
	"github.com/hyperjump/medresearch/internal/report"
)

// rebuildWorkers bounds concurrent report loads during Rebuild.
const rebuildWorkers = 4

// Source lists and loads saved reports.
type Source interface {
	List() ([]report.Entry, error)
	Load(id string) (report.Report, error)
}

// Indexer indexes reports into the keyword index.
type Indexer struct {
	source Source
	index  keyword.ReportIndex
	logger *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (report indexed, report removed, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer over source writing to index.
func NewIndexer(source Source, index keyword.ReportIndex, opts ...IndexerOption) *Indexer {
	idx := &Indexer{source: source, index: index, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Index adds or replaces one decoded report.
func (idx *Indexer) Index(ctx context.Context, r report.Report) error {
	doc := keyword.Document{
		ID:        r.ID,
		Query:     r.Query,
		Content:   Preprocess(r.Content),
		Timestamp: r.Timestamp,
	}
	if err := idx.index.Index(ctx, doc); err != nil {
		return fmt.Errorf("failed to index report %s: %w", r.ID, err)
	}
	idx.logger.Debug("indexer report indexed", zap.String("id", r.ID))
	return nil
}

// IndexFile reads a report file and indexes it. Files that are not reports (wrong extension,
// temp files, no front matter) are skipped without error.
func (idx *Indexer) IndexFile(ctx context.Context, path string) error {
	if !report.IsReportFile(filepath.Base(path)) {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	raw := string(data)
	if _, ok := report.ParseFrontMatter(raw); !ok {
		idx.logger.Debug("indexer skipping file without front matter", zap.String("path", path))
		return nil
	}
	return idx.Index(ctx, report.Decode(report.IDFromPath(path), raw))
}

// RemoveFile removes the report stored at path from the index.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	if !report.IsReportFile(filepath.Base(path)) {
		return nil
	}
	id := report.IDFromPath(path)
	if err := idx.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	idx.logger.Debug("indexer report removed", zap.String("id", id))
	return nil
}

// Rebuild indexes every report the source lists. Reports that vanish between listing and
// loading are skipped. Returns the number of reports indexed.
func (idx *Indexer) Rebuild(ctx context.Context) (int, error) {
	entries, err := idx.source.List()
	if err != nil {
		return 0, fmt.Errorf("list reports: %w", err)
	}

	var n atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildWorkers)
	for _, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := idx.source.Load(e.ID)
			if errors.Is(err, report.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := idx.Index(gctx, r); err != nil {
				return err
			}
			n.Add(1)
			return nil
		})
	}
	err = g.Wait()
	idx.logger.Info("report index rebuilt", zap.Int64("reports", n.Load()), zap.Int("listed", len(entries)))
	return int(n.Load()), err
}
