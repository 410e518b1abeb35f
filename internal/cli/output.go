// Package cli provides output formatting and a server client for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/medresearch/internal/keyword"
	"github.com/hyperjump/medresearch/internal/report"
	"github.com/hyperjump/medresearch/internal/research"
	"github.com/hyperjump/medresearch/internal/storage"
	"github.com/hyperjump/medresearch/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteReports writes a report listing to w.
func WriteReports(w io.Writer, entries []report.Entry, format OutputFormat) error {
	if format == OutputJSON {
		if entries == nil {
			entries = []report.Entry{}
		}
		return WriteJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No reports found.")
		return nil
	}
	fmt.Fprintf(w, "%d reports\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(w, "%-25s  %s\n", e.Timestamp, e.ID)
		fmt.Fprintf(w, "%-25s  %s\n", "", utils.Truncate(e.Query, 100))
	}
	return nil
}

// WriteHits writes report search hits to w.
func WriteHits(w io.Writer, query string, hits []keyword.Hit, format OutputFormat) error {
	if format == OutputJSON {
		if hits == nil {
			hits = []keyword.Hit{}
		}
		return WriteJSON(w, hits)
	}
	fmt.Fprintf(w, "\nFound %d reports for %q\n\n", len(hits), query)
	for i, h := range hits {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, h.Score)
		fmt.Fprintf(w, "ID: %s\n", h.ID)
		if h.Query != "" {
			fmt.Fprintf(w, "Query: %s\n", h.Query)
		}
		for _, f := range h.Fragments {
			fmt.Fprintf(w, "\n  %s\n", utils.Truncate(utils.SingleLine(f), 200))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteRuns writes run journal records to w.
func WriteRuns(w io.Writer, runs []*storage.Run, format OutputFormat) error {
	if format == OutputJSON {
		if runs == nil {
			runs = []*storage.Run{}
		}
		return WriteJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-9s  %s\n", r.StartedAt.UTC().Format(time.RFC3339), r.Status, r.ID)
		fmt.Fprintf(w, "    query: %s\n", utils.Truncate(r.Query, 100))
		if r.FinishedAt != nil {
			fmt.Fprintf(w, "    took:  %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
		}
		switch {
		case r.Filename != "":
			fmt.Fprintf(w, "    file:  %s\n", r.Filename)
		case r.Error != "":
			fmt.Fprintf(w, "    error: %s\n", utils.Truncate(utils.SingleLine(r.Error), 200))
		}
	}
	return nil
}

// WriteEvent writes one research event. Progress goes to progress; the result body and
// errors go to out.
func WriteEvent(out, progress io.Writer, e research.Event) {
	switch e.Type {
	case research.EventProgress:
		fmt.Fprintf(progress, "» %s\n", e.Data)
	case research.EventResult:
		if e.Filename != "" {
			fmt.Fprintf(progress, "» saved %s\n", e.Filename)
		}
		fmt.Fprintln(out, strings.TrimRight(e.Data, "\n"))
	case research.EventError:
		fmt.Fprintf(out, "error: %s\n", e.Data)
	default:
		fmt.Fprintf(progress, "» %s: %s\n", e.Type, e.Data)
	}
}
