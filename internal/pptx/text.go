package pptx

import (
	"math"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"
)

// Align is a paragraph alignment.
type Align string

const (
	AlignLeft    Align = "l"
	AlignCenter  Align = "ctr"
	AlignRight   Align = "r"
	AlignJustify Align = "just"
)

// defaultSize is the point size used for a Font without one.
const defaultSize = 18

// Font describes run properties. An empty Name keeps the library
// default face; a nil Color is black.
type Font struct {
	Name   string
	Size   float64
	Bold   bool
	Italic bool
	Color  *RGB
}

func (f Font) font() *ppt.Font {
	out := ppt.NewFont()
	if f.Name != "" {
		out.SetName(f.Name)
		out.NameEA = f.Name
	}
	size := defaultSize
	if f.Size > 0 {
		size = int(math.Round(f.Size))
	}
	out.SetSize(size).SetBold(f.Bold).SetItalic(f.Italic)
	if f.Color != nil {
		out.SetColor(f.Color.color())
	}
	return out
}

type Run struct {
	Text string
	Font Font
}

type Paragraph struct {
	Runs       []Run
	Align      Align
	Level      int
	SpaceAfter float64 // points
}

// Para is a single-run paragraph.
func Para(text string, f Font) Paragraph {
	return Paragraph{Runs: []Run{{Text: text, Font: f}}}
}

// Lines splits text on newlines into one paragraph per line.
func Lines(text string, f Font, align Align) []Paragraph {
	var out []Paragraph
	for _, line := range strings.Split(text, "\n") {
		p := Para(line, f)
		p.Align = align
		out = append(out, p)
	}
	return out
}

// fill copies p into dst. Newlines inside a run become line breaks.
func (p Paragraph) fill(dst *ppt.Paragraph) {
	a := ppt.NewAlignment()
	if p.Align != "" {
		a.SetHorizontal(ppt.HorizontalAlignment(p.Align))
	}
	if p.Level > 0 {
		a.Level = p.Level
		a.MarginLeft = int64(p.Level) * 285750
	}
	dst.SetAlignment(a)
	if p.SpaceAfter > 0 {
		dst.SetSpaceAfter(int(p.SpaceAfter * 100))
	}
	for _, r := range p.Runs {
		for i, seg := range strings.Split(r.Text, "\n") {
			if i > 0 {
				dst.CreateBreak()
			}
			if seg == "" {
				continue
			}
			dst.CreateTextRun(seg).SetFont(r.Font.font())
		}
	}
}

// paragraphText returns the text of every run in order.
func paragraphText(paras []*ppt.Paragraph) []string {
	var out []string
	for _, p := range paras {
		for _, el := range p.GetElements() {
			if tr, ok := el.(*ppt.TextRun); ok && tr.GetText() != "" {
				out = append(out, tr.GetText())
			}
		}
	}
	return out
}
