// Package decode consumes complete server messages and turns frames into
// tile draws and stats requests into replies.
package decode

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/metrics"
	"github.com/gaspardpetit/rwv/internal/outbound"
	"github.com/gaspardpetit/rwv/internal/protocol"
)

// Renderer draws one encoded tile at x,y.
type Renderer interface {
	Render(enc protocol.Encoding, payload []byte, x, y int) error
}

// Sender is the best-effort outbound path.
type Sender interface {
	TrySend(kind outbound.Kind, pkt []byte, wait time.Duration) bool
}

type frameAcc struct {
	id      uint32
	started bool
	tiles   int
	bytes   int
	start   time.Time
}

type statsAcc struct {
	timeMs uint64
	count  uint64
	bytes  uint64
}

// Worker is the sole consumer of the decode queue and the sole caller of
// the renderer. Its accumulators are only touched from Run.
type Worker struct {
	queue  <-chan []byte
	render Renderer
	out    Sender
	width  int
	height int
	now    func() time.Time

	frame frameAcc
	stats statsAcc

	// OnFrame is called after the last message of a frame was handled.
	OnFrame func(id uint32, tiles int, d time.Duration)
}

// New returns a worker for a width x height display.
func New(queue <-chan []byte, r Renderer, out Sender, width, height int) *Worker {
	return &Worker{queue: queue, render: r, out: out, width: width, height: height, now: time.Now}
}

// Run handles messages until ctx is done or the queue is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-w.queue:
			if !ok {
				return nil
			}
			w.Handle(msg)
		}
	}
}

// Handle dispatches one message on its leading type byte.
func (w *Worker) Handle(msg []byte) {
	switch t := protocol.PeekType(msg); t {
	case protocol.MsgFrame:
		w.handleFrame(msg)
	case protocol.MsgFrameStats:
		w.handleStatsRequest(msg)
	default:
		metrics.RecordMessageIgnored("type")
		logx.Log.Debug().Str("type", t.String()).Int("bytes", len(msg)).Msg("ignoring message")
	}
}

func (w *Worker) handleFrame(msg []byte) {
	f, err := protocol.ParseFrame(msg)
	if err != nil {
		metrics.RecordMessageIgnored("malformed")
		logx.Log.Warn().Err(err).Int("bytes", len(msg)).Msg("dropping frame")
		return
	}
	h := f.Header
	if !w.frame.started || h.FrameID != w.frame.id {
		w.frame = frameAcc{id: h.FrameID, started: true, start: w.now()}
	}
	w.frame.bytes += len(msg)
	w.frame.tiles += len(f.Tiles)

	for _, t := range f.Tiles {
		if t.W == 0 || t.H == 0 || int(t.W) > w.width || int(t.H) > w.height {
			metrics.RecordTileSkipped()
			logx.Log.Debug().Uint16("w", t.W).Uint16("h", t.H).Msg("skipping tile")
		} else if err := w.render.Render(h.Encoding, t.Payload, int(t.X), int(t.Y)); err != nil {
			metrics.RecordTileFailed()
			logx.Log.Debug().Err(err).Uint32("frame", h.FrameID).Uint16("x", t.X).Uint16("y", t.Y).Msg("tile not drawn")
		}
		runtime.Gosched()
	}

	if !h.IsLastOfFrame() {
		return
	}
	d := w.now().Sub(w.frame.start)
	if d < 0 {
		d = 0
	}
	w.stats.timeMs += uint64(d.Milliseconds())
	w.stats.bytes += uint64(w.frame.bytes)
	w.stats.count++
	metrics.ObserveFrame(d)
	if w.OnFrame != nil {
		w.OnFrame(h.FrameID, w.frame.tiles, d)
	}
}

func (w *Worker) handleStatsRequest(msg []byte) {
	if _, err := protocol.DecodeFrameStats(msg); err != nil {
		metrics.RecordMessageIgnored("malformed")
		logx.Log.Debug().Err(err).Msg("bad frame_stats")
		return
	}
	reply := w.takeStats()
	var pkt [protocol.FrameStatsSize]byte
	if _, err := protocol.PutFrameStats(pkt[:], reply); err != nil {
		return
	}
	if !w.out.TrySend(outbound.KindFrameStats, pkt[:], outbound.DefaultWait) {
		logx.Log.Debug().Msg("frame_stats reply not sent")
	}
}

// takeStats builds the reply and zeroes the accumulator.
func (w *Worker) takeStats() protocol.FrameStats {
	var avg uint64
	if w.stats.count > 0 {
		avg = w.stats.timeMs / w.stats.count
	}
	s := protocol.FrameStats{AvgTimeMs: clamp32(avg), Bytes: clamp32(w.stats.bytes)}
	w.stats = statsAcc{}
	return s
}

func clamp32(v uint64) uint32 {
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
