package display

import "testing"

func TestFramebufferDrawClips(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	pix := make([]byte, 3*2*2)
	for i := range pix {
		pix[i] = byte(i + 1)
	}
	fb.DrawPixels(2, 2, 3, 2, pix, RGB, false)
	if got := fb.Pixel(2, 2); got != [2]byte{1, 2} {
		t.Fatalf("pixel(2,2) = %v", got)
	}
	if got := fb.Pixel(3, 2); got != [2]byte{3, 4} {
		t.Fatalf("pixel(3,2) = %v", got)
	}
	if got := fb.Pixel(1, 2); got != [2]byte{0, 0} {
		t.Fatalf("pixel(1,2) touched: %v", got)
	}
	if fb.Pushes() != 1 {
		t.Fatalf("pushes %d", fb.Pushes())
	}
}

func TestFramebufferNegativeOrigin(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	pix := []byte{1, 1, 2, 2, 3, 3, 4, 4}
	fb.DrawPixels(-1, -1, 2, 2, pix, BGR, true)
	if got := fb.Pixel(0, 0); got != [2]byte{4, 4} {
		t.Fatalf("pixel(0,0) = %v", got)
	}
}

func TestParseColorOrder(t *testing.T) {
	if ParseColorOrder("bgr") != BGR || ParseColorOrder("rgb") != RGB || ParseColorOrder("") != RGB {
		t.Fatalf("parse mismatch")
	}
}
