package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gaspardpetit/rwv/internal/display"
)

// bandRows is the number of rows converted and pushed at a time.
const bandRows = 16

// DrawFunc receives one converted band. dc is the decoder's draw context.
type DrawFunc func(dc *drawContext, x, y, w, h int, pix []byte)

func pushBand(dc *drawContext, x, y, w, h int, pix []byte) { dc.push(x, y, w, h, pix) }

// Software decodes any JPEG the standard decoder accepts and pushes it in
// row bands.
type Software struct {
	dc      drawContext
	draw    DrawFunc
	scratch []byte
}

func NewSoftware(surface display.Surface, p Packer) *Software {
	return &Software{dc: drawContext{surface: surface, packer: p}, draw: pushBand}
}

func (s *Software) Decode(payload []byte, x, y int) error {
	img, err := jpeg.Decode(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("decode jpeg: %w", err)
	}
	return s.emit(img, x, y)
}

func (s *Software) emit(img image.Image, x, y int) error {
	b := img.Bounds()
	w, h := s.dc.visible(x, y, b.Dx(), b.Dy())
	if w == 0 || h == 0 {
		return nil
	}
	if need := w * bandRows * 2; cap(s.scratch) < need {
		s.scratch = make([]byte, need)
	}
	for y0 := 0; y0 < h; y0 += bandRows {
		rows := min(bandRows, h-y0)
		pix := s.scratch[:w*rows*2]
		s.dc.pack(pix, img, y0, rows, w)
		s.draw(&s.dc, x, y+y0, w, rows, pix)
	}
	return nil
}
