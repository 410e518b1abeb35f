// Package websearch queries the Tavily search API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the Tavily search URL.
const DefaultEndpoint = "https://api.tavily.com/search"

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey         string
	endpoint       string
	depth          string
	maxResults     int
	includeDomains []string
	client         *http.Client
}

// Option configures a Tavily client.
type Option func(*Tavily)

// WithEndpoint overrides the API URL.
func WithEndpoint(url string) Option {
	return func(t *Tavily) { t.endpoint = url }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Tavily) { t.client = c }
}

// WithDepth sets search_depth ("basic" or "advanced").
func WithDepth(depth string) Option {
	return func(t *Tavily) { t.depth = depth }
}

// WithMaxResults caps the number of results.
func WithMaxResults(n int) Option {
	return func(t *Tavily) { t.maxResults = n }
}

// WithIncludeDomains restricts results to the given domains.
func WithIncludeDomains(domains []string) Option {
	return func(t *Tavily) { t.includeDomains = domains }
}

// NewTavily constructs a Tavily search provider.
func NewTavily(apiKey string, opts ...Option) *Tavily {
	t := &Tavily{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		depth:      "advanced",
		maxResults: 5,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type searchRequest struct {
	Query          string   `json:"query"`
	APIKey         string   `json:"api_key"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// Search posts a query to Tavily. Any non-200 response, including 429, is returned as an error.
func (t *Tavily) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}

	payload, err := json.Marshal(searchRequest{
		Query:          query,
		APIKey:         t.apiKey,
		SearchDepth:    t.depth,
		MaxResults:     t.maxResults,
		IncludeDomains: t.includeDomains,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := response.Results
	if t.maxResults > 0 && len(results) > t.maxResults {
		results = results[:t.maxResults]
	}
	return results, nil
}
