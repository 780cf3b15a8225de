package pptx

import (
	"errors"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"
)

// ErrEmptyTable is returned by AddTable for a table without rows or columns.
var ErrEmptyTable = errors.New("pptx: table has no cells")

type Cell struct {
	Text  string
	Font  Font
	Fill  *RGB
	Align Align
}

// Table is a grid of cells. Missing cells in short rows are left empty.
// The frame width is the sum of ColWidths and the height RowHeight per
// row; either left zero takes the placement Rect instead. Columns share
// the frame width evenly.
type Table struct {
	ColWidths []int64
	RowHeight int64
	Rows      [][]Cell
}

func (t Table) columns() int {
	n := 0
	for _, r := range t.Rows {
		n = max(n, len(r))
	}
	return n
}

// frame resolves the table extent from the placement rect.
func (t Table) frame(r Rect) Rect {
	var total int64
	for _, w := range t.ColWidths {
		total += w
	}
	if total > 0 {
		r.W = total
	}
	if t.RowHeight > 0 {
		r.H = t.RowHeight * int64(len(t.Rows))
	}
	return r
}

// AddTable adds a table at r.
func (s *Slide) AddTable(r Rect, t Table) error {
	cols := t.columns()
	if len(t.Rows) == 0 || cols == 0 {
		return ErrEmptyTable
	}
	tbl := s.s.AddTable(len(t.Rows), cols)
	place(&tbl.BaseShape, t.frame(r))
	for i, row := range t.Rows {
		for j, c := range row {
			fillCell(tbl.GetCell(i, j), c)
		}
	}
	return nil
}

// fillCell writes c into the cell's first paragraph. Table cells hold a
// single paragraph, so line breaks are flattened to spaces.
func fillCell(dst *ppt.TableCell, c Cell) {
	if c.Fill != nil {
		dst.SetFill(ppt.NewFill().SetSolid(c.Fill.color()))
	}
	paras := dst.GetParagraphs()
	if len(paras) == 0 || c.Text == "" {
		return
	}
	text := strings.ReplaceAll(c.Text, "\n", " ")
	Paragraph{Runs: []Run{{Text: text, Font: c.Font}}, Align: c.Align}.fill(paras[0])
}
