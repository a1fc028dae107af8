// Package render draws JPEG tiles onto a display surface, preferring a
// fixed-buffer accelerated decoder and falling back to a general one.
package render

import (
	"errors"
	"fmt"

	"github.com/gaspardpetit/rwv/internal/display"
	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/metrics"
	"github.com/gaspardpetit/rwv/internal/protocol"
)

// ErrUnsupportedEncoding is returned for any tile encoding other than JPEG.
var ErrUnsupportedEncoding = errors.New("render: unsupported encoding")

// TileDecoder decodes one JPEG tile and draws it at x,y.
type TileDecoder interface {
	Decode(payload []byte, x, y int) error
}

// Options configures a Renderer.
type Options struct {
	Packer      Packer
	Accelerated bool
}

// Renderer picks a decode path per tile.
type Renderer struct {
	accel TileDecoder
	soft  TileDecoder
}

// New returns a renderer for surface.
func New(surface display.Surface, opts Options) *Renderer {
	r := &Renderer{soft: NewSoftware(surface, opts.Packer)}
	if opts.Accelerated {
		a, err := NewAccelerated(surface, opts.Packer)
		if err != nil {
			logx.Log.Warn().Err(err).Msg("accelerated decode disabled")
		} else {
			r.accel = a
		}
	}
	return r
}

// Accelerated reports whether the accelerated path is available.
func (r *Renderer) Accelerated() bool { return r.accel != nil }

func (r *Renderer) Render(enc protocol.Encoding, payload []byte, x, y int) error {
	if enc != protocol.EncodingJPEG {
		return fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
	if r.accel != nil {
		err := r.accel.Decode(payload, x, y)
		if err == nil {
			metrics.RecordTileRendered("accelerated")
			return nil
		}
		logx.Log.Trace().Err(err).Msg("falling back to software decode")
	}
	if err := r.soft.Decode(payload, x, y); err != nil {
		return err
	}
	metrics.RecordTileRendered("software")
	return nil
}
