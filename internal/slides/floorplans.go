package slides

import (
	"fmt"
	"os"

	"github.com/gemdale/reportkit/internal/pptx"
)

const (
	floorPlanTop        = 4.5
	floorPlanMaxWidth   = 1.8
	floorPlanSideMargin = 0.5
	floorPlanTitleH     = 0.35
	floorPlanTitleGap   = 0.08
)

// FloorPlanCells returns the picture width and the left edge of each of n
// cells spread across the slide width, all in inches. Pictures are at
// most 1.8in wide and centred in their cell.
func FloorPlanCells(slideWidth float64, n int) (width float64, lefts []float64) {
	if n <= 0 {
		return 0, nil
	}
	cell := (slideWidth - 2*floorPlanSideMargin) / float64(n)
	width = min(floorPlanMaxWidth, cell*0.95)
	lefts = make([]float64, n)
	for i := range lefts {
		lefts[i] = floorPlanSideMargin + float64(i)*cell + (cell-width)/2
	}
	return width, lefts
}

// AddFloorPlanPictures lays the existing images out in a row on page 3
// with a "户型 N" caption above each. Missing files are skipped and do
// not take a cell. It returns the number of pictures placed.
func AddFloorPlanPictures(deck *pptx.Presentation, images []string) (int, error) {
	var found []string
	for _, img := range images {
		if fi, err := os.Stat(img); err == nil && !fi.IsDir() {
			found = append(found, img)
		}
	}
	s := ensureSlide(deck, 3)
	if len(found) == 0 {
		return 0, nil
	}
	w, _ := deck.SlideSize()
	width, lefts := FloorPlanCells(pptx.ToInches(w), len(found))
	for i, img := range found {
		r := pptx.Rect{X: pptx.Inches(lefts[i]), Y: pptx.Inches(floorPlanTop), W: pptx.Inches(width)}
		placed, err := s.AddPicture(r, img)
		if err != nil {
			return i, fmt.Errorf("floor plan %s: %w", img, err)
		}
		top := max(placed.Y-pptx.Inches(floorPlanTitleH+floorPlanTitleGap), pptx.Inches(0.1))
		p := pptx.Para(fmt.Sprintf("户型 %d", i+1), pptx.Font{Name: "Arial", Size: 12, Bold: true})
		p.Align = pptx.AlignCenter
		title := pptx.Rect{X: placed.X, Y: top, W: placed.W, H: pptx.Inches(floorPlanTitleH)}
		if err := s.AddTextbox(title, []pptx.Paragraph{p}); err != nil {
			return i, err
		}
	}
	return len(found), nil
}

// FloorPlanParagraphs numbers each floor plan summary as "户型 N: ...".
func FloorPlanParagraphs(summaries []string) []pptx.Paragraph {
	paras := make([]pptx.Paragraph, len(summaries))
	for i, text := range summaries {
		p := pptx.Para(fmt.Sprintf("户型 %d: %s", i+1, text), pptx.Font{Name: "Arial", Size: 14})
		p.Align = pptx.AlignLeft
		p.SpaceAfter = 10
		paras[i] = p
	}
	return paras
}

// AddFloorPlanText writes the floor plan summaries onto page 3 between
// the header and the picture row.
func AddFloorPlanText(deck *pptx.Presentation, summaries []string) error {
	if len(summaries) == 0 {
		return ErrNoRows
	}
	s := ensureSlide(deck, 3)
	w, _ := deck.SlideSize()
	r := pptx.Rect{X: pptx.Inches(0.5), Y: pptx.Inches(1.3), W: w - pptx.Inches(1.0), H: pptx.Inches(2.6)}
	return s.AddTextbox(r, FloorPlanParagraphs(summaries), pptx.WordWrap())
}
