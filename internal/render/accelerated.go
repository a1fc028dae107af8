package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gaspardpetit/rwv/internal/display"
)

// errIneligible marks a tile the accelerated path declines; the caller
// falls back to the software decoder.
var errIneligible = errors.New("tile not eligible for accelerated decode")

const (
	alignment = 16
	// maxAcceleratedArea caps the fixed buffers at a 4K display.
	maxAcceleratedArea = 3840 * 2160
)

// Accelerated decodes 16-aligned baseline tiles into fixed buffers sized for
// the whole aligned display, so steady-state decoding does not allocate
// pixel memory.
type Accelerated struct {
	dc  drawContext
	in  []byte
	out []byte
}

// NewAccelerated sizes the buffers for surface. It fails when the display
// is too large for the fixed buffers; the renderer then runs without the
// accelerated path.
func NewAccelerated(surface display.Surface, p Packer) (*Accelerated, error) {
	w := alignUp(surface.Width())
	h := alignUp(surface.Height())
	if w <= 0 || h <= 0 || w*h > maxAcceleratedArea {
		return nil, fmt.Errorf("accelerated decoder: display %dx%d not supported", surface.Width(), surface.Height())
	}
	return &Accelerated{
		dc:  drawContext{surface: surface, packer: p},
		in:  make([]byte, w*h*2),
		out: make([]byte, w*h*2),
	}, nil
}

func alignUp(v int) int { return (v + alignment - 1) &^ (alignment - 1) }

// Decode draws payload at x,y or returns an error wrapping errIneligible
// when the tile does not meet the accelerated constraints.
func (a *Accelerated) Decode(payload []byte, x, y int) error {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", errIneligible, err)
	}
	if cfg.Width%alignment != 0 || cfg.Height%alignment != 0 {
		return fmt.Errorf("%w: %dx%d not %d-aligned", errIneligible, cfg.Width, cfg.Height, alignment)
	}
	if len(payload) > len(a.in) {
		return fmt.Errorf("%w: payload %d exceeds input buffer", errIneligible, len(payload))
	}
	if cfg.Width*cfg.Height*2 > len(a.out) {
		return fmt.Errorf("%w: %dx%d exceeds output buffer", errIneligible, cfg.Width, cfg.Height)
	}
	n := copy(a.in, payload)
	img, err := jpeg.Decode(bytes.NewReader(a.in[:n]))
	if err != nil {
		return fmt.Errorf("%w: %v", errIneligible, err)
	}
	ycc, ok := img.(*image.YCbCr)
	if !ok {
		return fmt.Errorf("%w: %T is not planar YCbCr", errIneligible, img)
	}
	w, h := a.dc.visible(x, y, cfg.Width, cfg.Height)
	if w == 0 || h == 0 {
		return nil
	}
	pix := a.out[:w*h*2]
	a.dc.pack(pix, ycc, 0, h, w)
	a.dc.push(x, y, w, h, pix)
	return nil
}
