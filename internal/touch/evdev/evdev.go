// Package evdev reads single-touch input from a Linux event device and
// converts it to touch events in display coordinates.
package evdev

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/touch"
)

const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0x00
	btnTouch  = 0x14a

	absX         = 0x00
	absY         = 0x01
	absMTPosX    = 0x35
	absMTPosY    = 0x36
	absMTTrackID = 0x39
)

// eventSize is sizeof(struct input_event): a timeval of two longs followed
// by type, code and value.
var eventSize = 2*strconv.IntSize/8 + 8

// Options maps raw axis ranges onto the display.
type Options struct {
	// MaxX and MaxY are the raw axis maxima; zero leaves coordinates as read.
	MaxX, MaxY    int
	Width, Height int
}

func (o Options) scale(v, limit, size int) int {
	if limit <= 0 || size <= 0 {
		return v
	}
	return v * (size - 1) / limit
}

// Decoder accumulates one report at a time and emits at most one event per
// SYN_REPORT.
type Decoder struct {
	opts  Options
	down  bool
	was   bool
	x, y  int
	moved bool
}

func NewDecoder(opts Options) *Decoder { return &Decoder{opts: opts} }

// Feed consumes one raw event.
func (d *Decoder) Feed(typ, code uint16, value int32) (touch.Event, bool) {
	switch typ {
	case evKey:
		if code == btnTouch {
			d.down = value != 0
		}
	case evAbs:
		switch code {
		case absX, absMTPosX:
			d.x = int(value)
			d.moved = true
		case absY, absMTPosY:
			d.y = int(value)
			d.moved = true
		case absMTTrackID:
			// single-touch panels without BTN_TOUCH report lift as id -1
			d.down = value >= 0
		}
	case evSyn:
		if code == synReport {
			return d.report()
		}
	}
	return touch.Event{}, false
}

func (d *Decoder) report() (touch.Event, bool) {
	ev := touch.Event{
		X: d.opts.scale(d.x, d.opts.MaxX, d.opts.Width),
		Y: d.opts.scale(d.y, d.opts.MaxY, d.opts.Height),
	}
	moved := d.moved
	d.moved = false
	switch {
	case d.down && !d.was:
		ev.Kind = touch.Press
	case !d.down && d.was:
		ev.Kind = touch.Release
	case d.down && moved:
		ev.Kind = touch.Move
	default:
		return touch.Event{}, false
	}
	d.was = d.down
	return ev, true
}

// Read decodes events from r until it fails or ctx is done. Closing r is the
// way to unblock a pending read.
func Read(ctx context.Context, r io.Reader, opts Options, events chan<- touch.Event) error {
	d := NewDecoder(opts)
	buf := make([]byte, eventSize)
	off := eventSize - 8
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, os.ErrClosed) || ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		typ := binary.LittleEndian.Uint16(buf[off:])
		code := binary.LittleEndian.Uint16(buf[off+2:])
		value := int32(binary.LittleEndian.Uint32(buf[off+4:]))
		ev, ok := d.Feed(typ, code, value)
		if !ok {
			continue
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Source reads a touch device into a channel.
type Source struct {
	path string
	opts Options
}

func NewSource(path string, opts Options) *Source {
	return &Source{path: path, opts: opts}
}

// Run opens the device and feeds events until ctx is done. events is closed
// on return.
func (s *Source) Run(ctx context.Context, events chan<- touch.Event) error {
	defer close(events)
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open touch device: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = f.Close()
	}()
	logx.Log.Info().Str("device", s.path).Msg("touch input opened")
	err = Read(ctx, f, s.opts, events)
	if ctx.Err() == nil {
		_ = f.Close()
	}
	return err
}
