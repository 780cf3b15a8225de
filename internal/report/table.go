package report

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// TableRows parses the HTML of a table block into rows of cell text. A
// cell with colspan=n is followed by n-1 empty cells so columns line up.
func TableRows(content string) ([][]string, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
					continue
				}
				row = append(row, cellText(c))
				for span := colspan(c); span > 1; span-- {
					row = append(row, "")
				}
			}
			if len(row) > 0 {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return rows, nil
}

// BlockRows is TableRows for a table block. Other block types have no rows.
func BlockRows(b Block) ([][]string, error) {
	if b.Type != BlockTable {
		return nil, nil
	}
	return TableRows(b.Content)
}

func colspan(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key == "colspan" {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 0 {
				return v
			}
		}
	}
	return 1
}

func cellText(n *html.Node) string {
	var parts []string
	var cur strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			cur.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			parts = append(parts, cur.String())
			cur.Reset()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	parts = append(parts, cur.String())

	var out []string
	for _, p := range parts {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
