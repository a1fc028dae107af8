package transport

import (
	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/metrics"
)

// Queue carries complete messages from the receiver to the decode worker.
// Offer never blocks; the consumer drains C.
type Queue struct {
	C chan []byte

	// OnDrop, if set, is called from Offer for every dropped message.
	OnDrop func()
}

// NewQueue returns a queue holding up to depth messages.
func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = 1
	}
	return &Queue{C: make(chan []byte, depth)}
}

// Offer enqueues msg, dropping it when the queue is full.
func (q *Queue) Offer(msg []byte) bool {
	select {
	case q.C <- msg:
		return true
	default:
		metrics.RecordMessageDropped()
		if q.OnDrop != nil {
			q.OnDrop()
		}
		logx.Log.Warn().Int("bytes", len(msg)).Int("depth", cap(q.C)).Msg("decode queue full; dropping message")
		return false
	}
}

// Len returns the number of queued messages.
func (q *Queue) Len() int { return len(q.C) }
