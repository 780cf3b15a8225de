// Package pptx wraps GoPPT with the handful of shapes the report
// generators place: blank slides, text boxes, solid rectangles, tables,
// pictures and pie charts. Positions and sizes are EMU throughout.
package pptx

import (
	"fmt"
	"os"
	"path/filepath"

	ppt "github.com/VantageDataChat/GoPPT"
)

// Presentation is an in-memory deck.
type Presentation struct {
	doc *ppt.Presentation
	// spare is the blank slide GoPPT creates with every new deck. It is
	// handed out by the first AddSlide instead of being left empty.
	spare *ppt.Slide
}

// New builds an empty presentation of the given slide size.
func New(width, height int64) (*Presentation, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pptx: invalid slide size %dx%d", width, height)
	}
	doc := ppt.New()
	doc.GetLayout().SetCustomLayout(width, height)
	p := &Presentation{doc: doc}
	if s, err := doc.GetSlide(0); err == nil {
		p.spare = s
	}
	return p, nil
}

// Open reads a .pptx file into memory.
func Open(path string) (*Presentation, error) {
	doc, err := ppt.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Presentation{doc: doc}, nil
}

// OpenTemplate reads a deck and empties it so its size and masters can
// back a new presentation. The first slide is cleared and kept as the
// spare handed out by AddSlide.
func OpenTemplate(path string) (*Presentation, error) {
	p, err := Open(path)
	if err != nil {
		return nil, err
	}
	for p.doc.GetSlideCount() > 1 {
		if err := p.doc.RemoveSlideByIndex(p.doc.GetSlideCount() - 1); err != nil {
			return nil, fmt.Errorf("clear %s: %w", path, err)
		}
	}
	if s, err := p.doc.GetSlide(0); err == nil {
		for len(s.GetShapes()) > 0 {
			if err := s.RemoveShape(0); err != nil {
				return nil, fmt.Errorf("clear %s: %w", path, err)
			}
		}
		p.spare = s
	}
	return p, nil
}

// Save writes the deck to path through a temp file and rename.
func (p *Presentation) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pptx-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := p.doc.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// SlideSize returns the slide width and height in EMU.
func (p *Presentation) SlideSize() (int64, int64) {
	l := p.doc.GetLayout()
	return l.CX, l.CY
}

func (p *Presentation) slides() []*ppt.Slide {
	all := p.doc.GetAllSlides()
	if p.spare != nil && len(all) > 0 && all[0] == p.spare {
		return all[1:]
	}
	return all
}

func (p *Presentation) SlideCount() int {
	return len(p.slides())
}

// Slide returns the i-th slide (0-indexed), or nil when out of range.
func (p *Presentation) Slide(i int) *Slide {
	all := p.slides()
	if i < 0 || i >= len(all) {
		return nil
	}
	return &Slide{s: all[i]}
}

// AddSlide appends a blank slide.
func (p *Presentation) AddSlide() *Slide {
	if p.spare != nil {
		s := p.spare
		p.spare = nil
		return &Slide{s: s}
	}
	return &Slide{s: p.doc.CreateSlide()}
}
