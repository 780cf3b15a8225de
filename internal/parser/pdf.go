package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "reportkit-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := p.ReadPages(tmpPath)
	if err != nil {
		return nil, err
	}

	doc := &Document{Title: stem(filename), Pages: pages}
	for _, pg := range pages {
		doc.Lines = append(doc.Lines, splitLines(pg.Text)...)
	}
	return doc, nil
}

// ReadPages returns the text of every page in the PDF at path. Pages
// without text are kept so page numbers stay aligned.
func (p *PDFParser) ReadPages(path string) ([]Page, error) {
	texts, err := extractPDFText(path)
	if (err != nil || blank(texts)) && p.FallbackPdftotext {
		if alt, altErr := extractPdftotext(path); altErr == nil {
			texts, err = alt, nil
		} else if err == nil && len(texts) == 0 {
			err = altErr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	pages := make([]Page, 0, len(texts))
	for i, t := range texts {
		pages = append(pages, Page{Number: i + 1, Text: strings.TrimSpace(t)})
	}
	return pages, nil
}

func extractPDFText(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	texts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func extractPdftotext(path string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	texts := splitPages(string(out))
	// pdftotext terminates the last page with a form feed.
	if n := len(texts); n > 1 && strings.TrimSpace(texts[n-1]) == "" {
		texts = texts[:n-1]
	}
	return texts, nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}

func blank(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}
