// Package report persists research reports as markdown files with a front matter header.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TimestampLayout is the fixed-width ISO-8601 form written to front matter.
// Timestamps are always UTC so lexical order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

const ext = ".md"

// ErrNotFound is returned by Get when no report with the given id exists.
var ErrNotFound = errors.New("report not found")

// Draft is the input to Save. A zero Timestamp means "now".
type Draft struct {
	Query        string
	Body         string
	ModelsUsed   []string
	SourcesCount int
	Timestamp    time.Time
}

// Entry is a listing row.
type Entry struct {
	ID        string `json:"id"`
	Filename  string `json:"-"`
	Query     string `json:"query"`
	Timestamp string `json:"timestamp"`
}

// Report is a decoded report: metadata plus the untouched body.
type Report struct {
	ID           string   `json:"id"`
	Query        string   `json:"query"`
	Timestamp    string   `json:"timestamp"`
	Content      string   `json:"content"`
	ModelsUsed   []string `json:"models_used"`
	SourcesCount int      `json:"sources_count"`
}

// Store reads and writes reports under one directory.
type Store struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore returns a store rooted at dir. The directory is created on first save.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes a new report and returns its listing entry.
// A report with the same identity is overwritten.
func (s *Store) Save(d Draft) (Entry, error) {
	ts := d.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC().Truncate(time.Second)

	id := Identity(d.Query, ts)
	meta := Metadata{
		Query:        d.Query,
		Timestamp:    ts.Format(TimestampLayout),
		ModelsUsed:   d.ModelsUsed,
		SourcesCount: d.SourcesCount,
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Entry{}, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.dir, id+ext)
	if err := writeAtomic(path, []byte(EncodeFrontMatter(meta)+d.Body)); err != nil {
		return Entry{}, fmt.Errorf("write report %s: %w", id, err)
	}

	s.logger.Info("report saved", zap.String("id", id), zap.String("path", path))
	return Entry{ID: id, Filename: id + ext, Query: meta.Query, Timestamp: meta.Timestamp}, nil
}

// Identity returns the report id for a query created at ts.
func Identity(query string, ts time.Time) string {
	return ts.UTC().Format("2006-01-02") + "_" + Slugify(query)
}

// writeAtomic writes data to a temp file in the same directory, then renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// List returns all parseable reports, newest first. A missing directory yields no entries.
// Files without a front matter block are skipped.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !IsReportFile(name) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable report", zap.String("file", name), zap.Error(err))
			continue
		}
		meta, ok := ParseFrontMatter(string(data))
		if !ok {
			s.logger.Warn("skipping file without front matter", zap.String("file", name))
			continue
		}
		id := strings.TrimSuffix(name, ext)
		entries = append(entries, Entry{ID: id, Filename: name, Query: meta.Query, Timestamp: meta.Timestamp})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp > entries[j].Timestamp
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

// Get returns the raw text of the report with the given id. A trailing ".md" is accepted.
func (s *Store) Get(id string) (string, error) {
	path, ok := s.pathFor(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", fmt.Errorf("read report %s: %w", id, err)
	}
	return string(data), nil
}

// Load returns the decoded report with the given id.
func (s *Store) Load(id string) (Report, error) {
	raw, err := s.Get(id)
	if err != nil {
		return Report{}, err
	}
	return Decode(strings.TrimSuffix(id, ext), raw), nil
}

// pathFor maps an id to a file inside the store directory. ok is false for ids that
// would escape it.
func (s *Store) pathFor(id string) (string, bool) {
	id = strings.TrimSuffix(id, ext)
	if id == "" || id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	return filepath.Join(s.dir, id+ext), true
}

// IsReportFile reports whether name looks like a report file (not a temp file).
func IsReportFile(name string) bool {
	return strings.HasSuffix(name, ext) && !strings.HasPrefix(name, ".")
}

// IDFromPath returns the report id for a file path.
func IDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ext)
}

// Decode splits raw report text into metadata and body. Missing metadata yields empty fields.
func Decode(id string, raw string) Report {
	meta, _ := ParseFrontMatter(raw)
	models := meta.ModelsUsed
	if models == nil {
		models = []string{}
	}
	return Report{
		ID:           id,
		Query:        meta.Query,
		Timestamp:    meta.Timestamp,
		Content:      SplitBody(raw),
		ModelsUsed:   models,
		SourcesCount: meta.SourcesCount,
	}
}
