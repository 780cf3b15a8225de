// Package slides lays out the Gemdale competitor-analysis deck: the
// branded template and the tables and text placed on its pages.
package slides

import (
	"fmt"
	"os"
	"time"

	"github.com/gemdale/reportkit/internal/pptx"
)

// DefaultSlides is the page count of a new template.
const DefaultSlides = 5

var (
	headerBlue  = pptx.RGB{R: 0, G: 102, B: 204}
	footerRed   = pptx.RGB{R: 246, G: 75, B: 48}
	darkBlue    = pptx.RGB{R: 0, G: 51, B: 102}
	zebraGray   = pptx.RGB{R: 240, G: 240, B: 240}
	copyrightFg = pptx.RGB{R: 200, G: 200, B: 200}
)

const (
	slideWidthIn  = 13.33
	slideHeightIn = 7.5
	headerMaxIn   = 1.2
	footerIn      = 0.64
	titleFont     = "黑体"
)

var now = time.Now

// Titles returns the page titles for a project deck of n slides.
func Titles(project string, n int) []string {
	predefined := []string{
		"x.x 一级竞品：" + project + "-基础信息",
		"x.x 一级竞品：" + project + "-分批推售情况",
		"x.x 一级竞品：" + project + "-户型分析",
		"x.x 一级竞品：" + project + "-配置分析",
		"x.x 一级竞品：" + project + "-客户分析",
	}
	titles := make([]string, n)
	for i := range titles {
		if i < len(predefined) {
			titles[i] = predefined[i]
		} else {
			titles[i] = fmt.Sprintf("标题：第%d页标题", i+1)
		}
	}
	return titles
}

// CreateTemplate builds a 16:9 deck of n branded slides. headerImage may
// be empty or missing, in which case a blue band stands in for it.
func CreateTemplate(project string, n int, headerImage string) (*pptx.Presentation, error) {
	if n <= 0 {
		n = DefaultSlides
	}
	deck, err := pptx.New(pptx.Inches(slideWidthIn), pptx.Inches(slideHeightIn))
	if err != nil {
		return nil, err
	}
	for i, title := range Titles(project, n) {
		s := deck.AddSlide()
		if err := decorate(deck, s, i+1, headerImage); err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		if err := addTitle(deck, s, title); err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
	}
	return deck, nil
}

func decorate(deck *pptx.Presentation, s *pptx.Slide, page int, headerImage string) error {
	w, h := deck.SlideSize()
	if err := addHeader(s, w, headerImage); err != nil {
		return err
	}

	footer := pptx.Inches(footerIn)
	top := h - footer
	if err := s.AddRect(pptx.Rect{X: footer, Y: top, W: w - footer, H: footer}, footerRed); err != nil {
		return err
	}
	if err := s.AddRect(pptx.Rect{X: 0, Y: top - footer, W: footer, H: footer}, footerRed); err != nil {
		return err
	}

	textTop := top + pptx.Inches(0.15)
	numLeft := pptx.Inches(0.05)
	numWidth := footer - pptx.Inches(0.1)
	arial := func(size float64, bold bool, c pptx.RGB) pptx.Font {
		return pptx.Font{Name: "Arial", Size: size, Bold: bold, Color: &c}
	}

	num := pptx.Para(fmt.Sprint(page), arial(12, true, footerRed))
	num.Align = pptx.AlignCenter
	if err := s.AddTextbox(pptx.Rect{X: numLeft, Y: textTop, W: numWidth, H: footer}, []pptx.Paragraph{num}, pptx.AutoFit()); err != nil {
		return err
	}

	company := pptx.Para("Gemdale Corporation", arial(10, false, pptx.White))
	company.Align = pptx.AlignLeft
	companyRect := pptx.Rect{X: numLeft + numWidth + pptx.Inches(0.5), Y: textTop, W: pptx.Inches(3), H: footer}
	if err := s.AddTextbox(companyRect, []pptx.Paragraph{company}, pptx.AutoFit()); err != nil {
		return err
	}

	notice := pptx.Para(fmt.Sprintf("© %d Gemdale Corp. - All Rights Reserved", now().Year()), arial(9, false, copyrightFg))
	notice.Align = pptx.AlignRight
	noticeRect := pptx.Rect{X: w - pptx.Inches(4), Y: textTop, W: pptx.Inches(3.5), H: footer}
	return s.AddTextbox(noticeRect, []pptx.Paragraph{notice}, pptx.AutoFit())
}

// addHeader places the header image across the slide width, its height
// capped at 1.2in. Without a usable image the header is a blue band.
func addHeader(s *pptx.Slide, slideWidth int64, image string) error {
	maxH := pptx.Inches(headerMaxIn)
	if image != "" {
		if _, err := os.Stat(image); err == nil {
			if iw, ih, err := pptx.ImageSize(image); err == nil && iw > 0 {
				height := min(slideWidth*int64(ih)/int64(iw), maxH)
				if _, err := s.AddPicture(pptx.Rect{W: slideWidth, H: height}, image); err == nil {
					return nil
				}
			}
		}
	}
	return s.AddRect(pptx.Rect{W: slideWidth, H: maxH}, headerBlue)
}

func addTitle(deck *pptx.Presentation, s *pptx.Slide, title string) error {
	w, _ := deck.SlideSize()
	left := pptx.Inches(footerIn * 1.5)
	r := pptx.Rect{X: left, Y: pptx.Inches(0.1), W: w - left - pptx.Inches(1), H: pptx.Inches(0.4)}
	p := pptx.Para(title, pptx.Font{Name: titleFont, Size: 24, Bold: true, Color: &pptx.Black})
	p.Align = pptx.AlignLeft
	return s.AddTextbox(r, []pptx.Paragraph{p}, pptx.WordWrap(), pptx.AutoFit())
}
