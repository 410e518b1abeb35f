// Package extract converts source documents into report text for import.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Func extracts plain text from the raw bytes of one document format.
type Func func(content []byte) (string, error)

// Document is the text extracted from one file.
type Document struct {
	Name   string
	Format string
	Text   string
}

// Markdown renders d as a report body: a heading, a provenance line and the text.
func (d Document) Markdown() string {
	title := strings.TrimSuffix(d.Name, filepath.Ext(d.Name))
	return fmt.Sprintf("# %s\n\n_Imported from `%s` (%s)._\n\n%s\n", title, d.Name, d.Format, strings.TrimSpace(d.Text))
}

// Extractor extracts plain text from document files, dispatching on extension.
type Extractor struct {
	handlers map[string]Func
}

// NewExtractor returns an Extractor for PDF, DOCX, XLSX, ODT, RTF and plain text files.
func NewExtractor() *Extractor {
	return &Extractor{handlers: map[string]Func{
		".pdf":  extractPDF,
		".docx": extractDOCX,
		".xlsx": extractExcel,
		".odt":  extractOpenDoc,
		".rtf":  extractOpenDoc,
		".txt":  extractPlain,
		".md":   extractPlain,
		".rst":  extractPlain,
	}}
}

// Supported returns the extensions with a dedicated extractor, sorted.
func (e *Extractor) Supported() []string {
	exts := make([]string, 0, len(e.handlers))
	for ext := range e.handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the file at path and returns its text. Unknown extensions are read as
// UTF-8 text.
func (e *Extractor) Extract(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	text, err := e.ExtractBytes(content, ext)
	if err != nil {
		return Document{}, err
	}
	format := strings.TrimPrefix(ext, ".")
	if format == "" {
		format = "text"
	}
	return Document{Name: filepath.Base(path), Format: format, Text: text}, nil
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	if fn, ok := e.handlers[strings.ToLower(ext)]; ok {
		return fn(content)
	}
	return extractPlain(content)
}
