// Package keyword provides full-text search over saved reports.
package keyword

import "context"

// Document is a report as stored in the index.
type Document struct {
	ID        string
	Query     string
	Content   string
	Timestamp string
}

// SearchOptions optional parameters for search. Nil means use defaults.
type SearchOptions struct {
	// QueryBoost multiplies the score of matches in the report's query field.
	// Values > 1 rank reports whose question matches above those that only mention the terms.
	QueryBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance for fuzzy matching (1 or 2). Default 1.
	Fuzziness int
}

// Hit is a single search result.
type Hit struct {
	ID        string   `json:"id"`
	Query     string   `json:"query"`
	Timestamp string   `json:"timestamp"`
	Score     float64  `json:"score"`
	Fragments []string `json:"fragments,omitempty"`
}

// ReportIndex defines report search operations.
type ReportIndex interface {
	Index(ctx context.Context, doc Document) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}
