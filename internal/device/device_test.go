package device

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/gaspardpetit/rwv/internal/config"
	"github.com/gaspardpetit/rwv/internal/display"
	"github.com/gaspardpetit/rwv/internal/protocol"
	"github.com/gaspardpetit/rwv/internal/touch"
)

func jpegTile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func recvMessage(t *testing.T, ch <-chan []byte) protocol.Message {
	t.Helper()
	select {
	case b := <-ch:
		m, err := protocol.Decode(b)
		if err != nil {
			t.Fatalf("decode %v: %v", b, err)
		}
		return m
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for device message")
	}
	return nil
}

func TestDeviceEndToEnd(t *testing.T) {
	resetState()
	frame, err := protocol.Marshal(protocol.Frame{
		Header: protocol.FrameHeader{FrameID: 1, Encoding: protocol.EncodingJPEG, Flags: protocol.FlagLastOfFrame},
		Tiles:  []protocol.Tile{{TileHeader: protocol.TileHeader{X: 16, Y: 0, W: 16, H: 16}, Payload: jpegTile(t)}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	fromDevice := make(chan []byte, 16)
	toDevice := make(chan []byte, 4)
	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		queries <- req.URL.RawQuery
		c, err := websocket.Accept(w, req, nil)
		if err != nil {
			return
		}
		defer func() { _ = c.Close(websocket.StatusNormalClosure, "") }()
		ctx := req.Context()
		go func() {
			for msg := range toDevice {
				if err := c.Write(ctx, websocket.MessageBinary, msg); err != nil {
					return
				}
			}
		}()
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				return
			}
			fromDevice <- data
		}
	}))
	defer srv.Close()
	defer close(toDevice)

	cfg := config.Defaults()
	cfg.Server = strings.TrimPrefix(srv.URL, "http://")
	cfg.URL = "http://start"
	cfg.DeviceID = "dev-test"
	cfg.MoveInterval = 0
	fb := display.NewFramebuffer(64, 32)
	d := New(cfg, fb)
	if d.ID() != "dev-test" {
		t.Fatalf("id %q", d.ID())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan touch.Event, 1)
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, events) }()

	select {
	case q := <-queries:
		if q != "id=dev-test&w=64&h=32&r=0" {
			t.Fatalf("query %q", q)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("device never connected")
	}
	if u, ok := recvMessage(t, fromDevice).(protocol.OpenURL); !ok || u.URL != "http://start" {
		t.Fatalf("expected start url, got %#v", u)
	}

	toDevice <- frame
	toDevice <- []byte{byte(protocol.MsgFrameStats), protocol.Version}
	stats, ok := recvMessage(t, fromDevice).(protocol.FrameStats)
	if !ok || stats.Request || stats.Bytes != uint32(len(frame)) {
		t.Fatalf("stats reply %#v", stats)
	}
	if fb.Pixel(20, 4) == [2]byte{} || fb.Pixel(4, 4) != [2]byte{} {
		t.Fatalf("tile not drawn where expected")
	}
	if st := GetState(); st.FramesRendered != 1 || !st.ConnectedToServer {
		t.Fatalf("state %+v", st)
	}

	if !d.OpenURL("http://next") {
		t.Fatalf("open url failed while connected")
	}
	if u, ok := recvMessage(t, fromDevice).(protocol.OpenURL); !ok || u.URL != "http://next" {
		t.Fatalf("expected next url, got %#v", u)
	}
	if GetState().URL != "http://next" {
		t.Fatalf("state url not updated")
	}

	events <- touch.Event{Kind: touch.Press, PointerID: 1, X: 10, Y: 12}
	if tp, ok := recvMessage(t, fromDevice).(protocol.Touch); !ok || tp.Kind != protocol.TouchDown || tp.X != 10 || tp.Y != 12 {
		t.Fatalf("expected touch down, got %#v", tp)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("device did not stop")
	}
}
