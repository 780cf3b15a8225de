package parser

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser keeps markdown lines verbatim. The title is the first
// heading, or the file stem when there is none.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s, err := DecodeText(src)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Title: stem(filename),
		Lines: splitLines(s),
	}
	if title := firstHeading([]byte(s)); title != "" {
		doc.Title = title
	}
	return doc, nil
}

func firstHeading(src []byte) string {
	root := goldmark.New().Parser().Parse(text.NewReader(src))
	var title string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || title != "" {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			title = strings.TrimSpace(nodeText(h, src))
			if title != "" {
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return title
}

func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
			continue
		}
		sb.WriteString(nodeText(c, src))
	}
	return sb.String()
}
