// Package touch forwards local pointer input to the server as Touch packets.
package touch

import (
	"context"
	"sync"
	"time"

	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/outbound"
	"github.com/gaspardpetit/rwv/internal/protocol"
)

// DefaultMoveInterval limits forwarded moves to 60 per second.
const DefaultMoveInterval = 16 * time.Millisecond

// Sender is the best-effort outbound path.
type Sender interface {
	TrySend(kind outbound.Kind, pkt []byte, wait time.Duration) bool
}

// EventKind is the pointer transition reported by a touch source.
type EventKind int

const (
	Press EventKind = iota
	Move
	Release
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Move:
		return "move"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// Event is one pointer sample in display coordinates.
type Event struct {
	Kind      EventKind
	PointerID uint8
	X, Y      int
}

// Listener turns pointer events into Touch packets. Presses and releases
// are always sent; moves are coalesced to at most one per interval across
// all pointers.
type Listener struct {
	out      Sender
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastMove time.Time
	moved    bool
}

// NewListener returns a listener; an interval of 0 forwards every move.
func NewListener(out Sender, interval time.Duration) *Listener {
	return &Listener{out: out, interval: interval, now: time.Now}
}

func (l *Listener) Press(id uint8, x, y int) bool {
	return l.send(protocol.TouchDown, id, x, y)
}

func (l *Listener) Release(id uint8, x, y int) bool {
	return l.send(protocol.TouchUp, id, x, y)
}

// Move forwards the sample unless a move was forwarded less than the
// interval ago. Dropped samples report false.
func (l *Listener) Move(id uint8, x, y int) bool {
	if l.interval > 0 {
		now := l.now()
		l.mu.Lock()
		if l.moved && now.Sub(l.lastMove) < l.interval {
			l.mu.Unlock()
			return false
		}
		l.lastMove = now
		l.moved = true
		l.mu.Unlock()
	}
	return l.send(protocol.TouchMove, id, x, y)
}

// ReleaseAll ends any touch in progress, e.g. when the touch source goes
// away.
func (l *Listener) ReleaseAll() bool {
	return l.send(protocol.TouchUp, 0, 0, 0)
}

// Handle dispatches one event.
func (l *Listener) Handle(ev Event) bool {
	switch ev.Kind {
	case Press:
		return l.Press(ev.PointerID, ev.X, ev.Y)
	case Move:
		return l.Move(ev.PointerID, ev.X, ev.Y)
	case Release:
		return l.Release(ev.PointerID, ev.X, ev.Y)
	default:
		return false
	}
}

// Pump handles events until ctx is done or events is closed, then releases
// any touch in progress.
func (l *Listener) Pump(ctx context.Context, events <-chan Event) error {
	defer l.ReleaseAll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			l.Handle(ev)
		}
	}
}

func (l *Listener) send(kind protocol.TouchType, id uint8, x, y int) bool {
	var pkt [protocol.TouchSize]byte
	if _, err := protocol.PutTouch(pkt[:], protocol.Touch{Kind: kind, PointerID: id, X: clamp(x), Y: clamp(y)}); err != nil {
		return false
	}
	if !l.out.TrySend(outbound.KindTouch, pkt[:], outbound.TouchWait) {
		logx.Log.Trace().Int("x", x).Int("y", y).Msg("touch dropped")
		return false
	}
	return true
}

func clamp(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}
