package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/medresearch/internal/websearch"
)

// NoResultsMessage is returned when a search finds nothing.
const NoResultsMessage = "Search returned no results for the query."

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}

// SearchTool exposes web search to the agent.
type SearchTool struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewSearchTool wraps s as an agent tool.
func NewSearchTool(s Searcher, logger *zap.Logger) *SearchTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchTool{searcher: s, logger: logger}
}

func (t *SearchTool) Name() string { return "web_search" }

func (t *SearchTool) Description() string {
	return "Search the web for medical literature and authoritative health sources. " +
		"Returns titles, URLs, and content snippets."
}

func (t *SearchTool) Parameters() map[string]any {
	return queryParameters("The search query.")
}

func (t *SearchTool) Invoke(ctx context.Context, args map[string]any) string {
	query, err := queryArg(args)
	if err != nil {
		return "error: " + err.Error()
	}
	results, err := t.searcher.Search(ctx, query)
	if err != nil {
		t.logger.Error("web search failed", zap.String("query", query), zap.Error(err))
		return fmt.Sprintf("Search failed: %v. Please try again or refine your query.", err)
	}
	return FormatResults(results)
}

// FormatResults renders results as a numbered list for the model.
func FormatResults(results []websearch.Result) string {
	if len(results) == 0 {
		return NoResultsMessage
	}
	parts := make([]string, 0, len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		parts = append(parts, fmt.Sprintf("[%d] %s\n    URL: %s\n    %s", i+1, title, r.URL, r.Content))
	}
	return strings.Join(parts, "\n\n")
}
