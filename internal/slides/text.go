package slides

import (
	"errors"
	"strings"

	"github.com/gemdale/reportkit/internal/pptx"
)

// ErrTooFewSlides is returned when the customer analysis page is missing.
var ErrTooFewSlides = errors.New("slides: deck has fewer than 5 slides")

// AddKaipanSummary centres the one-sentence opening summary under the
// title of page 2.
func AddKaipanSummary(deck *pptx.Presentation, sentence string) error {
	s := ensureSlide(deck, 2)
	w, _ := deck.SlideSize()
	r := pptx.Rect{X: pptx.Inches(0.6), Y: pptx.Inches(0.75), W: w - pptx.Inches(1.2), H: pptx.Inches(0.9)}
	p := pptx.Para(strings.TrimSpace(sentence), pptx.Font{Name: titleFont, Size: 14, Bold: true, Color: &darkBlue})
	p.Align = pptx.AlignCenter
	return s.AddTextbox(r, []pptx.Paragraph{p}, pptx.WordWrap())
}

// SurroundingParagraphs formats the surroundings summary: a bold heading,
// then one paragraph per non-blank line. Bullet lines are indented.
func SurroundingParagraphs(text string) []pptx.Paragraph {
	paras := []pptx.Paragraph{pptx.Para("周边配套信息总结：", pptx.Font{Size: 14, Bold: true})}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		p := pptx.Para(trimmed, pptx.Font{Size: 12})
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			p.Level = 1
		}
		paras = append(paras, p)
	}
	return paras
}

// AddSurroundingSummary writes the surroundings summary onto page 4.
func AddSurroundingSummary(deck *pptx.Presentation, text string) error {
	s := ensureSlide(deck, 4)
	return s.AddTextbox(pptx.InchRect(0.5, 0.5, 9.0, 3.5), SurroundingParagraphs(text))
}

// AddCustomerAnalysis writes the customer analysis onto page 5. The page
// must already exist.
func AddCustomerAnalysis(deck *pptx.Presentation, text string) error {
	if deck.SlideCount() < 5 {
		return ErrTooFewSlides
	}
	p := pptx.Para(text, pptx.Font{Size: 14})
	return deck.Slide(4).AddTextbox(pptx.InchRect(1, 1.5, 8, 5), []pptx.Paragraph{p}, pptx.WordWrap())
}
