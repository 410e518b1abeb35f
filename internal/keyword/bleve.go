package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

const defaultQueryBoost = 2.0

// BleveIndex implements ReportIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path keeps the index in
// memory; it is then rebuilt from the report directory on every start.
// If you change the index mapping in code, remove the index directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := buildMapping()

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so drug and gene names match exactly.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("query", textFieldMapping)

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("timestamp", keywordFieldMapping)

	im.AddDocumentMapping("report", docMapping)
	im.DefaultType = "report"
	im.DefaultMapping = docMapping
	return im
}

// Index adds or replaces a report.
func (b *BleveIndex) Index(ctx context.Context, doc Document) error {
	return b.index.Index(doc.ID, map[string]interface{}{
		"id":        doc.ID,
		"query":     doc.Query,
		"content":   doc.Content,
		"timestamp": doc.Timestamp,
	})
}

// Search matches query against report questions and bodies and returns up to limit hits,
// best first, with highlighted content fragments.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return []Hit{}, nil
	}
	boost := defaultQueryBoost
	fuzzy := false
	fuzziness := 1
	if opts != nil {
		if opts.QueryBoost > 0 {
			boost = opts.QueryBoost
		}
		fuzzy = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	var queryField, contentField blevequery.Query
	if fuzzy {
		queryField = buildFuzzyQuery(query, fuzziness, "query", boost)
		contentField = buildFuzzyQuery(query, fuzziness, "content", 1)
	} else {
		qq := bleve.NewMatchQuery(query)
		qq.SetField("query")
		qq.SetBoost(boost)
		cq := bleve.NewMatchQuery(query)
		cq.SetField("content")
		queryField, contentField = qq, cq
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queryField, contentField))
	req.Size = limit
	req.Fields = []string{"query", "timestamp"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("content")

	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		h := Hit{ID: hit.ID, Score: hit.Score, Fragments: hit.Fragments["content"]}
		if v, ok := hit.Fields["query"].(string); ok {
			h.Query = v
		}
		if v, ok := hit.Fields["timestamp"].(string); ok {
			h.Timestamp = v
		}
		out = append(out, h)
	}
	return out, nil
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries, one per term, restricted to field.
func buildFuzzyQuery(queryStr string, fuzziness int, field string, boost float64) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		queries = append(queries, fq)
	}
	d := bleve.NewDisjunctionQuery(queries...)
	d.SetBoost(boost)
	return d
}

// Delete removes a report from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of reports in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
