package slides

import (
	"errors"
	"fmt"
	"math"

	"github.com/gemdale/reportkit/internal/pptx"
)

// ErrNoRows is returned when a table has nothing to show.
var ErrNoRows = errors.New("slides: table has no rows")

// ensureSlide appends blank slides until page (1-based) exists.
func ensureSlide(deck *pptx.Presentation, page int) *pptx.Slide {
	for deck.SlideCount() < page {
		deck.AddSlide()
	}
	return deck.Slide(page - 1)
}

// DataTableOptions places the project table. Positions are inches.
type DataTableOptions struct {
	Slide  int
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// DefaultDataTableOptions puts the table on the right of the first page.
func DefaultDataTableOptions() DataTableOptions {
	return DataTableOptions{Slide: 1, Left: 7.5, Top: 2.0, Width: 5.5, Height: 3.0}
}

// AddDataTable adds the two-column project table. Left is pulled in so
// the table keeps a 0.2in right margin.
func AddDataTable(deck *pptx.Presentation, rows [][]string, opts DataTableOptions) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	if opts.Slide <= 0 {
		opts.Slide = 1
	}
	w, _ := deck.SlideSize()
	left := ClampLeft(opts.Left, opts.Width, pptx.ToInches(w))

	keyFont := pptx.Font{Size: 11, Bold: true}
	valFont := pptx.Font{Size: 11}
	t := pptx.Table{
		ColWidths: []int64{pptx.Inches(opts.Width * 0.35), pptx.Inches(opts.Width * 0.65)},
		RowHeight: pptx.Inches(opts.Height / float64(len(rows))),
	}
	for _, r := range rows {
		var key, val string
		if len(r) > 0 {
			key = r[0]
		}
		if len(r) > 1 {
			val = r[1]
		}
		t.Rows = append(t.Rows, []pptx.Cell{
			{Text: key, Font: keyFont, Fill: &zebraGray},
			{Text: val, Font: valFont, Fill: &pptx.White},
		})
	}
	s := ensureSlide(deck, opts.Slide)
	return s.AddTable(pptx.InchRect(left, opts.Top, opts.Width, opts.Height), t)
}

// ClampLeft keeps a table of width inside the slide with a 0.2in right
// margin, never left of the slide edge.
func ClampLeft(left, width, slideWidth float64) float64 {
	maxLeft := max(slideWidth-width-0.2, 0)
	return min(left, maxLeft)
}

const (
	kaipanMaxWidth  = 11.0
	kaipanRowHeight = 0.42
	kaipanTop       = 5.0
	kaipanHeaderPt  = 11
	kaipanDataPt    = 9
)

// KaipanColumnWidths estimates column widths in inches from the header and
// the widest data cell, scaled down when the total passes 11in.
func KaipanColumnWidths(header []string, rows [][]string) []float64 {
	widths := make([]float64, len(header))
	total := 0.0
	for c, h := range header {
		data := 0
		for _, r := range rows {
			if c < len(r) {
				data = max(data, effectiveLen(r[c]))
			}
		}
		est := math.Max(float64(effectiveLen(h)*kaipanHeaderPt), float64(data*kaipanDataPt))*0.55/72 + 0.18
		widths[c] = math.Max(0.6, math.Min(est, kaipanMaxWidth*0.7))
		total += widths[c]
	}
	if total > kaipanMaxWidth {
		scale := kaipanMaxWidth / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

// AddKaipanTable adds the opening records table to page 2, centred
// horizontally with its top at 5in.
func AddKaipanTable(deck *pptx.Presentation, header []string, rows [][]string) error {
	if len(header) == 0 {
		return ErrNoRows
	}
	widths := KaipanColumnWidths(header, rows)
	t := pptx.Table{RowHeight: pptx.Inches(kaipanRowHeight)}
	var total int64
	for _, w := range widths {
		t.ColWidths = append(t.ColWidths, pptx.Inches(w))
		total += pptx.Inches(w)
	}

	head := make([]pptx.Cell, len(header))
	for i, h := range header {
		head[i] = pptx.Cell{Text: h, Font: pptx.Font{Size: kaipanHeaderPt, Bold: true, Color: &pptx.White}, Fill: &darkBlue}
	}
	t.Rows = append(t.Rows, head)
	for i, r := range rows {
		fill := &pptx.White
		if (i+1)%2 == 0 {
			fill = &zebraGray
		}
		cells := make([]pptx.Cell, len(header))
		for c := range cells {
			var text string
			if c < len(r) {
				text = r[c]
			}
			cells[c] = pptx.Cell{Text: text, Font: pptx.Font{Size: kaipanDataPt}, Fill: fill}
		}
		t.Rows = append(t.Rows, cells)
	}

	s := ensureSlide(deck, 2)
	w, _ := deck.SlideSize()
	r := pptx.Rect{
		X: (w - total) / 2,
		Y: pptx.Inches(kaipanTop),
		W: total,
		H: pptx.Inches(kaipanRowHeight * float64(len(t.Rows))),
	}
	if err := s.AddTable(r, t); err != nil {
		return fmt.Errorf("kaipan table: %w", err)
	}
	return nil
}

// AddDecorationTable adds the room decoration table to page 4. rows
// exclude the header.
func AddDecorationTable(deck *pptx.Presentation, header []string, rows [][]string) error {
	if len(header) == 0 || len(rows) == 0 {
		return ErrNoRows
	}
	t := pptx.Table{RowHeight: pptx.Inches(0.5)}
	head := make([]pptx.Cell, len(header))
	for i, h := range header {
		head[i] = pptx.Cell{Text: h, Font: pptx.Font{Size: 14, Bold: true, Color: &pptx.White}, Fill: &darkBlue}
	}
	t.Rows = append(t.Rows, head)
	for i, r := range rows {
		fill := &pptx.White
		if (i+1)%2 == 0 {
			fill = &zebraGray
		}
		cells := make([]pptx.Cell, len(r))
		for c, text := range r {
			cells[c] = pptx.Cell{Text: text, Font: pptx.Font{Size: 12}, Fill: fill}
		}
		t.Rows = append(t.Rows, cells)
	}
	s := ensureSlide(deck, 4)
	return s.AddTable(pptx.InchRect(8.5, 3.0, 4.0, 0.5*float64(len(t.Rows))), t)
}

func effectiveLen(s string) int {
	n := 0
	for _, r := range s {
		if r > 127 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
