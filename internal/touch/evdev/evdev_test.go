package evdev

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/gaspardpetit/rwv/internal/touch"
)

type raw struct {
	typ, code uint16
	value     int32
}

func encode(events ...raw) []byte {
	var buf bytes.Buffer
	for _, e := range events {
		b := make([]byte, eventSize)
		off := eventSize - 8
		binary.LittleEndian.PutUint16(b[off:], e.typ)
		binary.LittleEndian.PutUint16(b[off+2:], e.code)
		binary.LittleEndian.PutUint32(b[off+4:], uint32(e.value))
		buf.Write(b)
	}
	return buf.Bytes()
}

func TestReadTouchSequence(t *testing.T) {
	data := encode(
		raw{evKey, btnTouch, 1}, raw{evAbs, absX, 100}, raw{evAbs, absY, 200}, raw{evSyn, synReport, 0},
		raw{evAbs, absX, 110}, raw{evSyn, synReport, 0},
		raw{evSyn, synReport, 0},
		raw{evKey, btnTouch, 0}, raw{evSyn, synReport, 0},
	)
	events := make(chan touch.Event, 8)
	err := Read(context.Background(), bytes.NewReader(data), Options{}, events)
	if err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	close(events)
	var got []touch.Event
	for ev := range events {
		got = append(got, ev)
	}
	want := []touch.Event{
		{Kind: touch.Press, X: 100, Y: 200},
		{Kind: touch.Move, X: 110, Y: 200},
		{Kind: touch.Release, X: 110, Y: 200},
	}
	if len(got) != len(want) {
		t.Fatalf("events %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events %+v, want %+v", got, want)
		}
	}
}

func TestDecoderScales(t *testing.T) {
	d := NewDecoder(Options{MaxX: 4095, MaxY: 4095, Width: 800, Height: 480})
	d.Feed(evAbs, absMTTrackID, 3)
	d.Feed(evAbs, absMTPosX, 4095)
	d.Feed(evAbs, absMTPosY, 0)
	ev, ok := d.Feed(evSyn, synReport, 0)
	if !ok || ev.Kind != touch.Press || ev.X != 799 || ev.Y != 0 {
		t.Fatalf("event %+v ok=%v", ev, ok)
	}
	d.Feed(evAbs, absMTTrackID, -1)
	ev, ok = d.Feed(evSyn, synReport, 0)
	if !ok || ev.Kind != touch.Release {
		t.Fatalf("lift %+v ok=%v", ev, ok)
	}
}
