package pptx

import (
	"fmt"

	ppt "github.com/VantageDataChat/GoPPT"
)

// EMU (English Metric Unit) is the OOXML length unit.
const (
	EMUPerInch = 914400
	EMUPerPt   = 12700
)

// Inches converts inches to EMU.
func Inches(f float64) int64 {
	return int64(f*EMUPerInch + 0.5)
}

// Pt converts points to EMU.
func Pt(f float64) int64 {
	return int64(f*EMUPerPt + 0.5)
}

// ToInches converts EMU to inches.
func ToInches(emu int64) float64 {
	return float64(emu) / EMUPerInch
}

// Rect is a shape's position and size in EMU.
type Rect struct {
	X, Y, W, H int64
}

// InchRect builds a Rect from inch values.
func InchRect(x, y, w, h float64) Rect {
	return Rect{X: Inches(x), Y: Inches(y), W: Inches(w), H: Inches(h)}
}

func place(b *ppt.BaseShape, r Rect) {
	b.SetPosition(r.X, r.Y)
	b.SetSize(r.W, r.H)
}

// RGB is a solid colour.
type RGB struct {
	R, G, B uint8
}

func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB) color() ppt.Color {
	return ppt.NewColor(c.Hex())
}

var (
	White = RGB{255, 255, 255}
	Black = RGB{0, 0, 0}
)
