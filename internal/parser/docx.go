package parser

import (
	"fmt"
	"html"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser turns a Word document into markdown-style lines: headings
// become "#" lines, paragraphs become text lines and tables become
// <table> blocks, so report segmentation treats it like full.md.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "reportkit-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &Document{Title: stem(filename)}
	titled := false
	for _, item := range d.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(it); level > 0 {
				if !titled {
					doc.Title = text
					titled = true
				}
				text = strings.Repeat("#", level) + " " + text
			}
			doc.Lines = append(doc.Lines, text)
		case *docx.Table:
			doc.Lines = append(doc.Lines, docxTableLines(it)...)
		}
	}
	return doc, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(style, "heading"))
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// docxTableLines renders a table as HTML, one row per line, with the
// opening and closing tags on the first and last lines.
func docxTableLines(t *docx.Table) []string {
	if len(t.TableRows) == 0 {
		return nil
	}
	lines := make([]string, 0, len(t.TableRows)+2)
	lines = append(lines, "<table>")
	for _, row := range t.TableRows {
		var sb strings.Builder
		sb.WriteString("<tr>")
		for _, cell := range row.TableCells {
			span := 1
			if cell.TableCellProperties != nil && cell.TableCellProperties.GridSpan != nil && cell.TableCellProperties.GridSpan.Val > 1 {
				span = cell.TableCellProperties.GridSpan.Val
			}
			if span > 1 {
				fmt.Fprintf(&sb, `<td colspan="%d">`, span)
			} else {
				sb.WriteString("<td>")
			}
			var parts []string
			for _, para := range cell.Paragraphs {
				if text := docxParagraphText(para); text != "" {
					parts = append(parts, html.EscapeString(text))
				}
			}
			sb.WriteString(strings.Join(parts, "<br/>"))
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>")
		lines = append(lines, sb.String())
	}
	lines = append(lines, "</table>")
	return lines
}
