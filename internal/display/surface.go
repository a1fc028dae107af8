// Package display defines the pixel sink tiles are drawn into.
package display

// ColorOrder selects the channel order packed into each RGB565 pixel.
type ColorOrder int

const (
	RGB ColorOrder = iota
	BGR
)

func (o ColorOrder) String() string {
	if o == BGR {
		return "bgr"
	}
	return "rgb"
}

// ParseColorOrder accepts "rgb" or "bgr"; anything else is RGB.
func ParseColorOrder(s string) ColorOrder {
	if s == "bgr" || s == "BGR" {
		return BGR
	}
	return RGB
}

// Surface receives rectangles of packed 16-bit pixels. pix holds w*h pixels,
// two bytes each, row-major. order and bigEndian describe how they were packed.
// Implementations never need to read pixels back.
type Surface interface {
	Width() int
	Height() int
	DrawPixels(x, y, w, h int, pix []byte, order ColorOrder, bigEndian bool)
}
