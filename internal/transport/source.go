package transport

import (
	"context"
	"errors"
	"io"

	"github.com/coder/websocket"

	"github.com/gaspardpetit/rwv/internal/logx"
)

// readLimit bounds what the websocket library will accept for one message.
// Anything above the reassembly ceiling is drained and rejected by us, not
// by closing the connection.
const readLimit = 16 << 20

type messageReader interface {
	Reader(ctx context.Context) (websocket.MessageType, io.Reader, error)
}

// wsSource splits each binary websocket message into fragments of at most
// chunk bytes, the way the server side's send buffer delivers them.
type wsSource struct {
	conn  messageReader
	chunk int
	stage []byte
	n     int
	pos   int
	over  bool
}

// NewWebsocketSource reads binary messages from conn. Messages larger than
// limit are drained and surface as a single fragment declaring their size.
func NewWebsocketSource(conn *websocket.Conn, limit, chunk int) FragmentSource {
	conn.SetReadLimit(readLimit)
	return newSource(conn, limit, chunk)
}

func newSource(conn messageReader, limit, chunk int) *wsSource {
	if chunk <= 0 {
		chunk = limit
	}
	return &wsSource{conn: conn, chunk: chunk, stage: make([]byte, limit+1)}
}

func (s *wsSource) Next(ctx context.Context) (Fragment, error) {
	for s.pos >= s.n {
		if err := s.readMessage(ctx); err != nil {
			return Fragment{}, err
		}
	}
	if s.over {
		// the payload was drained; only the declared size is reported
		s.pos = s.n
		return Fragment{Offset: 0, Total: s.n, Final: true}, nil
	}
	end := s.pos + s.chunk
	if end > s.n {
		end = s.n
	}
	f := Fragment{Offset: s.pos, Total: s.n, Data: s.stage[s.pos:end], Final: end == s.n}
	s.pos = end
	return f, nil
}

func (s *wsSource) readMessage(ctx context.Context) error {
	for {
		typ, r, err := s.conn.Reader(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageBinary {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return err
			}
			logx.Log.Debug().Msg("ignoring text message")
			continue
		}
		n, err := io.ReadFull(r, s.stage)
		switch {
		case err == nil:
			rest, err := io.Copy(io.Discard, r)
			if err != nil {
				return err
			}
			s.n = n + int(rest)
			s.pos = 0
			s.over = true
			return nil
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			if n == 0 {
				continue
			}
			s.n = n
			s.pos = 0
			s.over = false
			return nil
		default:
			return err
		}
	}
}
