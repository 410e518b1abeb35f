package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/medresearch/pkg/utils"
)

const (
	delimiter      = "---"
	openDelimiter  = delimiter + "\n"
	closeDelimiter = "\n" + delimiter + "\n"
)

// Metadata is the front matter block of a report file.
type Metadata struct {
	Query        string
	Timestamp    string
	ModelsUsed   []string
	SourcesCount int
}

// EncodeFrontMatter renders meta as a front matter block, including both delimiters.
func EncodeFrontMatter(meta Metadata) string {
	var b strings.Builder
	b.WriteString(openDelimiter)
	fmt.Fprintf(&b, "query: %s\n", utils.SingleLine(meta.Query))
	fmt.Fprintf(&b, "timestamp: %s\n", meta.Timestamp)
	if len(meta.ModelsUsed) == 0 {
		b.WriteString("models_used: []\n")
	} else {
		b.WriteString("models_used:\n")
		for _, m := range meta.ModelsUsed {
			fmt.Fprintf(&b, "  - %s\n", m)
		}
	}
	fmt.Fprintf(&b, "sources_count: %d\n", meta.SourcesCount)
	b.WriteString(delimiter + "\n")
	return b.String()
}

// frontMatterEnd returns the index of the closing delimiter, or -1 when raw has no block.
func frontMatterEnd(raw string) int {
	if !strings.HasPrefix(raw, openDelimiter) {
		return -1
	}
	idx := strings.Index(raw[len(delimiter):], closeDelimiter)
	if idx < 0 {
		return -1
	}
	return idx + len(delimiter)
}

// ParseFrontMatter extracts the metadata block from raw report text.
// ok is false when raw does not start with a complete, non-empty block. Unknown keys are ignored.
func ParseFrontMatter(raw string) (meta Metadata, ok bool) {
	end := frontMatterEnd(raw)
	// "---\n---\n" closes before the opening delimiter ends.
	if end < len(openDelimiter) {
		return Metadata{}, false
	}
	block := raw[len(openDelimiter):end]

	inModels := false
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "- ") {
			if inModels {
				meta.ModelsUsed = append(meta.ModelsUsed, strings.TrimSpace(trimmed[2:]))
			}
			continue
		}
		inModels = false

		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "query":
			meta.Query = value
		case "timestamp":
			meta.Timestamp = value
		case "models_used":
			inModels = value == ""
			if value != "" && value != "[]" {
				meta.ModelsUsed = parseInlineList(value)
			}
		case "sources_count":
			if n, err := strconv.Atoi(value); err == nil {
				meta.SourcesCount = n
			}
		}
	}
	return meta, true
}

// parseInlineList reads a flow sequence such as "[a, b]".
func parseInlineList(value string) []string {
	value = strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SplitBody returns the text after the closing delimiter. When raw has no front matter
// block it is returned unchanged.
func SplitBody(raw string) string {
	end := frontMatterEnd(raw)
	if end < 0 {
		return raw
	}
	return raw[end+len(closeDelimiter):]
}
