package pptx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

var imageTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
}

// ImageSize returns the pixel dimensions of an image file.
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

type picture struct {
	data          []byte
	ext           string
	width, height int
}

// loadPicture reads an image for embedding. WebP is re-encoded as PNG
// since PowerPoint does not render it.
func loadPicture(path string) (*picture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if format == "webp" {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		data, format = buf.Bytes(), "png"
	}
	if _, ok := imageTypes[format]; !ok {
		return nil, fmt.Errorf("unsupported image format %q: %s", format, path)
	}
	return &picture{data: data, ext: format, width: cfg.Width, height: cfg.Height}, nil
}

// fit fills a zero width or height from the image aspect ratio. Both
// zero gives the native size at 96 dpi.
func (p *picture) fit(r Rect) Rect {
	if p.width == 0 || p.height == 0 {
		return r
	}
	switch {
	case r.W == 0 && r.H == 0:
		r.W = int64(p.width) * EMUPerInch / 96
		r.H = int64(p.height) * EMUPerInch / 96
	case r.W == 0:
		r.W = r.H * int64(p.width) / int64(p.height)
	case r.H == 0:
		r.H = r.W * int64(p.height) / int64(p.width)
	}
	return r
}
