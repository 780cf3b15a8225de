// Package pdfextract dumps the text of a PDF as per-page JSON and a
// markdown file.
package pdfextract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gemdale/reportkit/internal/parser"
)

// PageReader returns the text of every page of a PDF.
type PageReader interface {
	ReadPages(path string) ([]parser.Page, error)
}

// Result is the JSON written next to the markdown.
type Result struct {
	FileName   string        `json:"file_name"`
	TotalPages int           `json:"total_pages"`
	Pages      []parser.Page `json:"pages"`
}

// Extractor writes {stem}.json and {stem}.md for a PDF.
type Extractor struct {
	Reader PageReader
}

func New(r PageReader) *Extractor {
	if r == nil {
		r = &parser.PDFParser{FallbackPdftotext: true}
	}
	return &Extractor{Reader: r}
}

// Extract runs the default extractor.
func Extract(path, outDir string) (*Result, error) {
	return New(nil).Extract(path, outDir)
}

func (e *Extractor) Extract(path, outDir string) (*Result, error) {
	pages, err := e.Reader.ReadPages(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	res := &Result{FileName: stem, TotalPages: len(pages), Pages: pages}
	if res.Pages == nil {
		res.Pages = []parser.Page{}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, stem+".json"), buf.Bytes(), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(outDir, stem+".md"), []byte(Markdown(stem, pages)), 0o644); err != nil {
		return nil, err
	}
	return res, nil
}

// Markdown renders pages under a "# {title}" heading, one "## Page N"
// section per page separated by rules.
func Markdown(title string, pages []parser.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, p := range pages {
		fmt.Fprintf(&b, "## Page %d\n\n%s\n\n---\n\n", p.Number, p.Text)
	}
	return b.String()
}
