package display

import "sync"

// Framebuffer is an in-memory Surface storing pixels exactly as pushed.
// It backs headless runs and tests.
type Framebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	pix    []byte
	pushes int
}

// NewFramebuffer allocates a width x height framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{width: width, height: height, pix: make([]byte, width*height*2)}
}

func (f *Framebuffer) Width() int  { return f.width }
func (f *Framebuffer) Height() int { return f.height }

// DrawPixels copies the rectangle, clipped to the framebuffer.
func (f *Framebuffer) DrawPixels(x, y, w, h int, pix []byte, _ ColorOrder, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	for row := 0; row < h; row++ {
		dy := y + row
		if dy < 0 || dy >= f.height {
			continue
		}
		x0, x1 := x, x+w
		if x0 < 0 {
			x0 = 0
		}
		if x1 > f.width {
			x1 = f.width
		}
		if x0 >= x1 {
			continue
		}
		src := pix[(row*w+(x0-x))*2 : (row*w+(x1-x))*2]
		copy(f.pix[(dy*f.width+x0)*2:], src)
	}
}

// Pixel returns the two stored bytes at x,y.
func (f *Framebuffer) Pixel(x, y int) [2]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := (y*f.width + x) * 2
	return [2]byte{f.pix[i], f.pix[i+1]}
}

// Bytes returns a copy of the whole framebuffer.
func (f *Framebuffer) Bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.pix...)
}

// Pushes returns the number of DrawPixels calls.
func (f *Framebuffer) Pushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes
}
