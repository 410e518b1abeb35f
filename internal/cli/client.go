package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hyperjump/medresearch/internal/keyword"
	"github.com/hyperjump/medresearch/internal/research"
	"github.com/hyperjump/medresearch/internal/storage"
)

// ErrNoTerminalEvent is returned by Research when the stream ends without a result or error event.
var ErrNoTerminalEvent = errors.New("event stream ended without a result")

// Client talks to a running research server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Research starts a run and calls onEvent for each event until the terminal one, which
// is also returned. The run id from the server is returned alongside.
func (c *Client) Research(ctx context.Context, query string, onEvent func(research.Event)) (research.Event, string, error) {
	body, err := json.Marshal(research.Request{Query: query})
	if err != nil {
		return research.Event{}, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/research", bytes.NewReader(body))
	if err != nil {
		return research.Event{}, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return research.Event{}, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return research.Event{}, "", statusError(resp)
	}
	runID := resp.Header.Get("X-Run-ID")

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		e, ok, err := research.ParseSSELine(sc.Text())
		if err != nil {
			return research.Event{}, runID, err
		}
		if !ok {
			continue
		}
		if onEvent != nil {
			onEvent(e)
		}
		if e.Terminal() {
			return e, runID, nil
		}
	}
	if err := sc.Err(); err != nil {
		return research.Event{}, runID, fmt.Errorf("read event stream: %w", err)
	}
	return research.Event{}, runID, ErrNoTerminalEvent
}

// SearchReports queries the server's report index.
func (c *Client) SearchReports(ctx context.Context, query string, limit int) ([]keyword.Hit, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var hits []keyword.Hit
	if err := c.getJSON(ctx, "/api/reports/search?"+q.Encode(), &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// ListRuns returns the most recent runs recorded by the server.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]*storage.Run, error) {
	path := "/api/runs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var runs []*storage.Run
	if err := c.getJSON(ctx, path, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}
