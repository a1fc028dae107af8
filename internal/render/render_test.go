package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/gaspardpetit/rwv/internal/display"
	"github.com/gaspardpetit/rwv/internal/protocol"
)

func makeJPEG(t *testing.T, w, h int, gray bool) []byte {
	t.Helper()
	var img image.Image
	if gray {
		g := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g.SetGray(x, y, color.Gray{Y: uint8(x * 4)})
			}
		}
		img = g
	} else {
		m := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
			}
		}
		img = m
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestRejectsNonJPEG(t *testing.T) {
	fb := display.NewFramebuffer(64, 64)
	r := New(fb, Options{Accelerated: true})
	for _, enc := range []protocol.Encoding{protocol.EncodingPNG, protocol.EncodingRAW565, protocol.EncodingRAW565RLE, protocol.EncodingRAW565LZ4} {
		if err := r.Render(enc, []byte{1, 2, 3}, 0, 0); !errors.Is(err, ErrUnsupportedEncoding) {
			t.Fatalf("%s: %v", enc, err)
		}
	}
	if fb.Pushes() != 0 {
		t.Fatalf("rejected tile reached the display")
	}
}

func TestPathsAreByteIdentical(t *testing.T) {
	tile := makeJPEG(t, 32, 16, false)
	p := Packer{Order: display.BGR, BigEndian: true}

	fa := display.NewFramebuffer(64, 48)
	a, err := NewAccelerated(fa, p)
	if err != nil {
		t.Fatalf("accelerated: %v", err)
	}
	if err := a.Decode(tile, 8, 8); err != nil {
		t.Fatalf("accelerated decode: %v", err)
	}

	fs := display.NewFramebuffer(64, 48)
	if err := NewSoftware(fs, p).Decode(tile, 8, 8); err != nil {
		t.Fatalf("software decode: %v", err)
	}
	if !bytes.Equal(fa.Bytes(), fs.Bytes()) {
		t.Fatalf("accelerated and software output differ")
	}
	if fa.Pixel(8, 8) == [2]byte{} && fa.Pixel(20, 10) == [2]byte{} {
		t.Fatalf("nothing drawn")
	}
}

func TestAcceleratedDeclinesUnaligned(t *testing.T) {
	fb := display.NewFramebuffer(64, 64)
	a, err := NewAccelerated(fb, Packer{})
	if err != nil {
		t.Fatalf("accelerated: %v", err)
	}
	if err := a.Decode(makeJPEG(t, 15, 16, false), 0, 0); !errors.Is(err, errIneligible) {
		t.Fatalf("unaligned: %v", err)
	}
	if err := a.Decode(makeJPEG(t, 16, 16, true), 0, 0); !errors.Is(err, errIneligible) {
		t.Fatalf("grayscale: %v", err)
	}
	if err := a.Decode([]byte("not a jpeg"), 0, 0); !errors.Is(err, errIneligible) {
		t.Fatalf("garbage: %v", err)
	}
	big := makeJPEG(t, 128, 48, false)
	if err := a.Decode(big, 0, 0); !errors.Is(err, errIneligible) {
		t.Fatalf("larger than output buffer: %v", err)
	}
	if fb.Pushes() != 0 {
		t.Fatalf("declined tiles must not draw")
	}
}

func TestRendererFallsBack(t *testing.T) {
	fb := display.NewFramebuffer(64, 64)
	r := New(fb, Options{Accelerated: true})
	if !r.Accelerated() {
		t.Fatalf("accelerated path should be available")
	}
	if err := r.Render(protocol.EncodingJPEG, makeJPEG(t, 15, 10, false), 0, 0); err != nil {
		t.Fatalf("render: %v", err)
	}
	if fb.Pushes() == 0 {
		t.Fatalf("fallback did not draw")
	}
	if err := r.Render(protocol.EncodingJPEG, []byte{0xff, 0xd8, 0}, 0, 0); err == nil {
		t.Fatalf("corrupt jpeg should fail on both paths")
	}
}

func TestSoftwareBandsAndClipping(t *testing.T) {
	fb := display.NewFramebuffer(40, 30)
	s := NewSoftware(fb, Packer{})
	type band struct{ x, y, w, h int }
	var bands []band
	s.draw = func(dc *drawContext, x, y, w, h int, pix []byte) {
		if dc.surface != fb {
			t.Fatalf("draw context carries wrong surface")
		}
		if len(pix) != w*h*2 {
			t.Fatalf("band size %d for %dx%d", len(pix), w, h)
		}
		bands = append(bands, band{x, y, w, h})
	}
	if err := s.Decode(makeJPEG(t, 32, 40, false), 16, 0); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []band{{16, 0, 24, 16}, {16, 16, 24, 14}}
	if len(bands) != len(want) {
		t.Fatalf("bands %v", bands)
	}
	for i := range want {
		if bands[i] != want[i] {
			t.Fatalf("bands %v, want %v", bands, want)
		}
	}
	bands = nil
	if err := s.Decode(makeJPEG(t, 16, 16, false), 40, 0); err != nil || len(bands) != 0 {
		t.Fatalf("off-screen tile drew %v (err %v)", bands, err)
	}
}

func TestPacker(t *testing.T) {
	var b [2]byte
	Packer{}.put565(b[:], 0xff, 0, 0)
	if b != [2]byte{0x00, 0xf8} {
		t.Fatalf("rgb little endian red = %x", b)
	}
	Packer{BigEndian: true}.put565(b[:], 0xff, 0, 0)
	if b != [2]byte{0xf8, 0x00} {
		t.Fatalf("rgb big endian red = %x", b)
	}
	Packer{Order: display.BGR}.put565(b[:], 0xff, 0, 0)
	if b != [2]byte{0x1f, 0x00} {
		t.Fatalf("bgr little endian red = %x", b)
	}
	Packer{}.put565(b[:], 0, 0xff, 0)
	if b != [2]byte{0xe0, 0x07} {
		t.Fatalf("green = %x", b)
	}
}
