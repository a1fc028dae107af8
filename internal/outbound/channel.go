// Package outbound serializes device-to-server packets onto the single
// server connection.
package outbound

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/metrics"
)

// Conn is the physical write path. Implementations write one whole binary
// message per call.
type Conn interface {
	Write(ctx context.Context, p []byte) error
}

// Kind labels the producer of a packet for logs and metrics.
type Kind string

const (
	KindTouch      Kind = "touch"
	KindKeepalive  Kind = "keepalive"
	KindFrameStats Kind = "frame_stats"
	KindOpenURL    Kind = "open_url"
)

// Default gate waits used by the producers.
const (
	DefaultWait = 50 * time.Millisecond
	TouchWait   = 10 * time.Millisecond
)

// Channel is the exclusive gate in front of the connection. All outbound
// traffic is best effort: a send that cannot get the gate in time, or finds
// no connection, is dropped.
type Channel struct {
	gate         *semaphore.Weighted
	conn         atomic.Pointer[connRef]
	writeTimeout time.Duration
}

type connRef struct{ c Conn }

// New returns a Channel whose writes are bounded by writeTimeout.
func New(writeTimeout time.Duration) *Channel {
	if writeTimeout <= 0 {
		writeTimeout = time.Second
	}
	return &Channel{gate: semaphore.NewWeighted(1), writeTimeout: writeTimeout}
}

// Attach installs the live connection.
func (c *Channel) Attach(conn Conn) {
	c.conn.Store(&connRef{c: conn})
}

// Detach clears the connection; later sends fail fast.
func (c *Channel) Detach() {
	c.conn.Store(nil)
}

// Connected reports whether a connection is attached. The answer may be
// stale by the time the caller acts on it.
func (c *Channel) Connected() bool {
	return c.conn.Load() != nil
}

// TrySend writes pkt as one message if the gate can be acquired within wait.
// It reports whether the packet was written.
func (c *Channel) TrySend(kind Kind, pkt []byte, wait time.Duration) bool {
	ref := c.conn.Load()
	if ref == nil {
		metrics.RecordSend(string(kind), "not_connected")
		return false
	}
	actx, cancel := context.WithTimeout(context.Background(), wait)
	err := c.gate.Acquire(actx, 1)
	cancel()
	if err != nil {
		metrics.RecordSend(string(kind), "busy")
		logx.Log.Debug().Str("kind", string(kind)).Msg("send gate busy; dropping packet")
		return false
	}
	defer c.gate.Release(1)

	wctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
	defer cancel()
	if err := ref.c.Write(wctx, pkt); err != nil {
		metrics.RecordSend(string(kind), "error")
		logx.Log.Debug().Err(err).Str("kind", string(kind)).Msg("send failed")
		return false
	}
	metrics.RecordSend(string(kind), "ok")
	return true
}
