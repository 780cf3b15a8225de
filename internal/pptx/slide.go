package pptx

import (
	ppt "github.com/VantageDataChat/GoPPT"
)

// Slide is one slide. Shapes are appended in order, so later shapes
// draw on top.
type Slide struct {
	s *ppt.Slide
}

// TextOption adjusts a text box body.
type TextOption func(*ppt.RichTextShape)

// WordWrap wraps text at the box width.
func WordWrap() TextOption {
	return func(t *ppt.RichTextShape) { t.SetWordWrap(true) }
}

// AutoFit resizes the shape to fit its text.
func AutoFit() TextOption {
	return func(t *ppt.RichTextShape) { t.SetAutoFit(ppt.AutoFitShape) }
}

// Anchor sets vertical alignment: "t", "ctr" or "b".
func Anchor(a string) TextOption {
	return func(t *ppt.RichTextShape) { t.SetTextAnchor(ppt.TextAnchorType(a)) }
}

// AddTextbox adds a text box. Without options text does not wrap.
func (s *Slide) AddTextbox(r Rect, paras []Paragraph, opts ...TextOption) error {
	box := s.s.AddTextBox()
	place(&box.BaseShape, r)
	box.SetWordWrap(false)
	for _, o := range opts {
		o(box)
	}
	if len(paras) == 0 {
		return nil
	}
	paras[0].fill(box.GetActiveParagraph())
	for _, p := range paras[1:] {
		p.fill(box.CreateParagraph())
	}
	return nil
}

// AddRect adds a borderless rectangle with a solid fill.
func (s *Slide) AddRect(r Rect, fill RGB) error {
	shape := s.s.AddAutoShape()
	shape.SetAutoShapeType(ppt.AutoShapeRectangle)
	place(&shape.BaseShape, r)
	shape.SetSolidFill(fill.color())
	shape.SetBorder(ppt.NewBorder())
	return nil
}

// AddPicture embeds the image at path. A zero width or height keeps the
// image aspect ratio. The returned Rect is the placed frame.
func (s *Slide) AddPicture(r Rect, path string) (Rect, error) {
	pic, err := loadPicture(path)
	if err != nil {
		return Rect{}, err
	}
	r = pic.fit(r)
	shape := s.s.AddImageData(pic.data, imageTypes[pic.ext])
	place(&shape.BaseShape, r)
	return r, nil
}

// Texts returns the text of every run on the slide in shape order.
// Table cells are read row by row.
func (s *Slide) Texts() []string {
	var out []string
	for _, shape := range s.s.GetShapes() {
		switch sh := shape.(type) {
		case *ppt.RichTextShape:
			out = append(out, paragraphText(sh.GetParagraphs())...)
		case *ppt.AutoShape:
			if sh.GetText() != "" {
				out = append(out, sh.GetText())
			}
		case *ppt.TableShape:
			for _, row := range sh.GetRows() {
				for _, cell := range row {
					out = append(out, paragraphText(cell.GetParagraphs())...)
				}
			}
		}
	}
	return out
}

// PictureCount returns the number of pictures placed on the slide.
func (s *Slide) PictureCount() int {
	n := 0
	for _, shape := range s.s.GetShapes() {
		if _, ok := shape.(*ppt.DrawingShape); ok {
			n++
		}
	}
	return n
}
