// Package transport owns the server connection: it turns fragmented
// websocket deliveries into whole messages and hands them to the decode
// queue without ever blocking the network path.
package transport

import "context"

// Fragment is one delivery of part of a logical message. Total is the
// declared size of the whole message and Offset the position of Data in it.
type Fragment struct {
	Offset int
	Total  int
	Data   []byte
	Final  bool
}

// FragmentSource yields fragments in arrival order. Data is only valid until
// the next call to Next.
type FragmentSource interface {
	Next(ctx context.Context) (Fragment, error)
}

// Status is the outcome of pushing a fragment.
type Status int

const (
	Pending Status = iota
	Complete
	RejectedOversize
	RejectedBounds
	Ignored
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	case RejectedOversize:
		return "oversize"
	case RejectedBounds:
		return "bounds"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Reassembler rebuilds messages from fragments. A completed message is handed
// to the caller and the reassembler keeps no reference to it.
type Reassembler struct {
	limit  int
	total  int
	filled int
	buf    []byte
}

// NewReassembler returns a reassembler that rejects messages larger than limit.
func NewReassembler(limit int) *Reassembler {
	return &Reassembler{limit: limit}
}

// Push adds a fragment. The returned slice is non-nil only with Complete.
func (r *Reassembler) Push(f Fragment) ([]byte, Status) {
	if f.Offset == 0 {
		r.Reset()
		if f.Total <= 0 {
			return nil, Ignored
		}
		if f.Total > r.limit {
			return nil, RejectedOversize
		}
		r.total = f.Total
		r.buf = make([]byte, f.Total)
	} else if r.buf == nil {
		// continuation of a message that was rejected or never started
		return nil, Ignored
	}
	if f.Total != r.total || f.Offset < 0 || f.Offset+len(f.Data) > r.total {
		r.Reset()
		return nil, RejectedBounds
	}
	copy(r.buf[f.Offset:], f.Data)
	if end := f.Offset + len(f.Data); end > r.filled {
		r.filled = end
	}
	if r.filled < r.total {
		return nil, Pending
	}
	msg := r.buf
	r.buf = nil
	r.total = 0
	r.filled = 0
	return msg, Complete
}

// Reset discards any partially assembled message.
func (r *Reassembler) Reset() {
	r.buf = nil
	r.total = 0
	r.filled = 0
}

// InProgress reports whether a message is partially assembled.
func (r *Reassembler) InProgress() bool { return r.buf != nil }
