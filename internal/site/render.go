package site

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gemdale/reportkit/internal/report"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var itemMarkerRe = regexp.MustCompile(`^(?:[-*•●]|\d+[、.])\s+`)

// Inline renders one line of markdown without the surrounding paragraph.
// Raw HTML in the input is dropped by goldmark's default renderer.
func Inline(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = out[len("<p>") : len(out)-len("</p>")]
	}
	return template.HTML(out)
}

var tableTags = map[atom.Atom]bool{
	atom.Table:   true,
	atom.Caption: true,
	atom.Thead:   true,
	atom.Tbody:   true,
	atom.Tfoot:   true,
	atom.Tr:      true,
	atom.Td:      true,
	atom.Th:      true,
	atom.Br:      true,
}

// SanitizeTable re-serialises a table fragment keeping only table markup
// and the colspan/rowspan attributes. Other elements are unwrapped.
func SanitizeTable(fragment string) (template.HTML, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		writeClean(&buf, n)
	}
	return template.HTML(buf.String()), nil
}

func writeClean(buf *bytes.Buffer, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
	default:
		return
	}
	if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
		return
	}
	keep := tableTags[n.DataAtom]
	if keep {
		buf.WriteByte('<')
		buf.WriteString(n.Data)
		for _, a := range n.Attr {
			if a.Namespace == "" && (a.Key == "colspan" || a.Key == "rowspan") {
				buf.WriteString(" " + a.Key + `="` + html.EscapeString(a.Val) + `"`)
			}
		}
		buf.WriteByte('>')
		if n.DataAtom == atom.Br {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeClean(buf, c)
	}
	if keep {
		buf.WriteString("</" + n.Data + ">")
	}
}

// renderBlock turns one content block into its site markup.
func renderBlock(b report.Block, section string) template.HTML {
	switch b.Type {
	case report.BlockText:
		return template.HTML("<p>") + Inline(b.Content) + template.HTML("</p>")
	case report.BlockTable:
		table, err := SanitizeTable(b.Content)
		if err != nil {
			table = template.HTML(template.HTMLEscapeString(b.Content))
		}
		return template.HTML(`<div class="table-container">`) + table + template.HTML("</div>")
	case report.BlockImage:
		return template.HTML(`<div class="image-card"><img src="assets/images/` +
			template.HTMLEscapeString(b.Content) + `" alt="` + template.HTMLEscapeString(section) +
			`" loading="lazy"></div>`)
	case report.BlockList:
		var sb strings.Builder
		sb.WriteString("<ul>")
		for _, line := range strings.Split(b.Content, "\n") {
			line = itemMarkerRe.ReplaceAllString(strings.TrimSpace(line), "")
			if line == "" {
				continue
			}
			sb.WriteString("<li>")
			sb.WriteString(string(Inline(line)))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")
		return template.HTML(sb.String())
	}
	return ""
}
