package render

import (
	"image"
	"image/color"

	"github.com/gaspardpetit/rwv/internal/display"
)

// Packer converts 8-bit RGB into the display's 16-bit pixel layout.
type Packer struct {
	Order     display.ColorOrder
	BigEndian bool
}

func (p Packer) put565(dst []byte, r, g, b uint8) {
	var v uint16
	if p.Order == display.BGR {
		v = uint16(b>>3)<<11 | uint16(g>>2)<<5 | uint16(r>>3)
	} else {
		v = uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
	}
	if p.BigEndian {
		dst[0], dst[1] = byte(v>>8), byte(v)
	} else {
		dst[0], dst[1] = byte(v), byte(v>>8)
	}
}

// rgbAt reads one pixel. YCbCr and Gray are converted directly so both
// decode paths produce identical bytes for the same source.
func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	switch m := img.(type) {
	case *image.YCbCr:
		yi := m.YOffset(x, y)
		ci := m.COffset(x, y)
		return color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
	case *image.Gray:
		v := m.Pix[m.PixOffset(x, y)]
		return v, v, v
	default:
		r, g, b, _ := img.At(x, y).RGBA()
		return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
	}
}

// drawContext is everything a band push needs. It is passed explicitly to
// the draw callback.
type drawContext struct {
	surface display.Surface
	packer  Packer
}

// visible clips a w x h tile at x,y to the surface and returns the drawable
// size. Zero means nothing is on screen.
func (dc *drawContext) visible(x, y, w, h int) (int, int) {
	if x < 0 || y < 0 || x >= dc.surface.Width() || y >= dc.surface.Height() {
		return 0, 0
	}
	return min(w, dc.surface.Width()-x), min(h, dc.surface.Height()-y)
}

// pack converts rows [y0, y0+rows) and columns [0, w) of img, relative to its
// bounds, into dst.
func (dc *drawContext) pack(dst []byte, img image.Image, y0, rows, w int) {
	b := img.Bounds()
	i := 0
	for row := y0; row < y0+rows; row++ {
		for col := 0; col < w; col++ {
			r, g, bl := rgbAt(img, b.Min.X+col, b.Min.Y+row)
			dc.packer.put565(dst[i:i+2], r, g, bl)
			i += 2
		}
	}
}

func (dc *drawContext) push(x, y, w, h int, pix []byte) {
	dc.surface.DrawPixels(x, y, w, h, pix, dc.packer.Order, dc.packer.BigEndian)
}
