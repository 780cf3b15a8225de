package slides

import (
	"strings"

	"github.com/gemdale/reportkit/internal/deal"
	"github.com/gemdale/reportkit/internal/pptx"
)

// Page 1 monthly deal table and page 2 sales picture, in inches.
const (
	analysisLeft   = 1.0
	analysisTop    = 4.0
	analysisWidth  = 5.0
	analysisHeight = 2.0

	salesLeft        = 8.5
	salesTop         = 2.8
	salesWidth       = 4.5
	salesChartHeight = 3.0
	salesTitleHeight = 0.45
	salesTitleGap    = 0.08
)

// AddAnalysisTable adds the monthly deal table to page 1. rows[0] is the
// header and is set bold. Every cell is Arial 10pt.
func AddAnalysisTable(deck *pptx.Presentation, rows [][]string) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ErrNoRows
	}
	t := pptx.Table{Rows: make([][]pptx.Cell, len(rows))}
	for i, r := range rows {
		cells := make([]pptx.Cell, len(r))
		for c, text := range r {
			cells[c] = pptx.Cell{Text: text, Font: pptx.Font{Name: "Arial", Size: 10, Bold: i == 0}}
		}
		t.Rows[i] = cells
	}
	s := ensureSlide(deck, 1)
	return s.AddTable(pptx.InchRect(analysisLeft, analysisTop, analysisWidth, analysisHeight), t)
}

// SalesTitle is the caption above the page 2 sales picture.
func SalesTitle(project, classification string) string {
	if classification == "" {
		classification = deal.ByRoomType
	}
	return project + "分" + classification + "销售情况"
}

// AddSalesPicture places the rendered sales chart on page 2, 4.5in wide
// at (8.5, 2.8), with its title 0.08in above.
func AddSalesPicture(deck *pptx.Presentation, title, image string) error {
	s := ensureSlide(deck, 2)
	placed, err := s.AddPicture(pptx.Rect{X: pptx.Inches(salesLeft), Y: pptx.Inches(salesTop), W: pptx.Inches(salesWidth)}, image)
	if err != nil {
		return err
	}
	return addSalesTitle(s, placed, title)
}

// AddSalesChart draws the monthly deal counts as a native column chart
// in the frame the sales picture would take.
func AddSalesChart(deck *pptx.Presentation, title string, bar pptx.Bar) error {
	s := ensureSlide(deck, 2)
	r := pptx.InchRect(salesLeft, salesTop, salesWidth, salesChartHeight)
	if err := s.AddBarChart(r, bar); err != nil {
		return err
	}
	return addSalesTitle(s, r, title)
}

func addSalesTitle(s *pptx.Slide, frame pptx.Rect, title string) error {
	top := max(frame.Y-pptx.Inches(salesTitleHeight+salesTitleGap), pptx.Inches(0.1))
	p := pptx.Para(title, pptx.Font{Name: "Arial", Size: 12, Bold: true})
	p.Align = pptx.AlignCenter
	r := pptx.Rect{X: frame.X, Y: top, W: frame.W, H: pptx.Inches(salesTitleHeight)}
	return s.AddTextbox(r, []pptx.Paragraph{p}, pptx.WordWrap())
}

// SalesBars turns the deal result into one column series per category
// over every month of the range. January is labelled with its year.
func SalesBars(res *deal.Result) pptx.Bar {
	months := res.FullMonths()
	bar := pptx.Bar{Categories: make([]string, len(months))}
	for i, m := range months {
		bar.Categories[i] = monthLabel(m)
	}
	for _, c := range res.Categories {
		ser := pptx.Series{Name: c, Values: make([]float64, len(months))}
		for i, m := range months {
			ser.Values[i] = float64(res.Get(m, c).Count)
		}
		bar.Series = append(bar.Series, ser)
	}
	return bar
}

func monthLabel(m string) string {
	_, month, ok := strings.Cut(m, "-")
	if !ok || month == "01" {
		return m
	}
	return month
}
