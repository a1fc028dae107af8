package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/metrics"
	"github.com/gaspardpetit/rwv/internal/outbound"
	"github.com/gaspardpetit/rwv/internal/protocol"
	"github.com/gaspardpetit/rwv/internal/reconnect"
)

const (
	DefaultMaxMessage = 64 * 1024
	DefaultBufferSize = 30 * 1024
	DefaultQueueDepth = 12

	DefaultKeepalive   = 10 * time.Second
	DefaultDialTimeout = 10 * time.Second

	keepaliveTick = time.Second
	urlSendWait   = 200 * time.Millisecond
)

// Options configures a Receiver.
type Options struct {
	URI               string
	MaxMessageBytes   int
	BufferSize        int
	KeepaliveInterval time.Duration
	DialTimeout       time.Duration
	Reconnect         bool
	// StartURL is sent on the first connection and on every reconnect until
	// OpenURL replaces it.
	StartURL string
}

func (o *Options) setDefaults() {
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = DefaultMaxMessage
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.KeepaliveInterval <= 0 {
		o.KeepaliveInterval = DefaultKeepalive
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
}

// Receiver dials the server, feeds complete messages into the decode queue
// and keeps the connection alive. It is the only reader of the socket.
type Receiver struct {
	opts  Options
	out   *outbound.Channel
	queue *Queue
	reasm *Reassembler

	now  func() time.Time
	tick time.Duration

	mu  sync.Mutex
	url string

	// Optional hooks, set before Run.
	OnConnect    func()
	OnDisconnect func(error)
	OnKeepalive  func(time.Time)
}

// NewReceiver returns a receiver writing to queue and sending through out.
func NewReceiver(opts Options, out *outbound.Channel, queue *Queue) *Receiver {
	opts.setDefaults()
	return &Receiver{
		opts:  opts,
		out:   out,
		queue: queue,
		reasm: NewReassembler(opts.MaxMessageBytes),
		now:   time.Now,
		tick:  keepaliveTick,
		url:   opts.StartURL,
	}
}

// Run connects and serves until ctx is done, reconnecting on the standard
// backoff schedule when enabled.
func (r *Receiver) Run(ctx context.Context) error {
	return reconnect.Loop(ctx, r.opts.Reconnect, r.connectAndServe)
}

func (r *Receiver) connectAndServe(ctx context.Context) (bool, error) {
	dctx, cancel := context.WithTimeout(ctx, r.opts.DialTimeout)
	ws, _, err := websocket.Dial(dctx, r.opts.URI, nil)
	cancel()
	if err != nil {
		logx.Log.Warn().Err(err).Str("uri", r.opts.URI).Msg("connect failed")
		if r.OnDisconnect != nil {
			r.OnDisconnect(err)
		}
		return false, err
	}
	defer func() {
		_ = ws.Close(websocket.StatusNormalClosure, "closing")
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logx.Log.Info().Str("uri", r.opts.URI).Msg("connected to server")
	r.onConnected(connCtx, wsConn{ws})
	err = r.serve(connCtx, NewWebsocketSource(ws, r.opts.MaxMessageBytes, r.opts.BufferSize))
	r.onDisconnected(err)
	return true, err
}

func (r *Receiver) onConnected(ctx context.Context, conn outbound.Conn) {
	r.out.Attach(conn)
	metrics.SetConnected(true)
	if r.OnConnect != nil {
		r.OnConnect()
	}
	if u := r.CurrentURL(); u != "" {
		if !r.sendURL(u) {
			logx.Log.Warn().Str("url", u).Msg("failed to resend url")
		}
	}
	go r.keepalive(ctx)
}

func (r *Receiver) onDisconnected(err error) {
	r.out.Detach()
	r.reasm.Reset()
	metrics.SetConnected(false)
	var ce websocket.CloseError
	switch {
	case errors.As(err, &ce):
		lvl := logx.Log.Info()
		if ce.Code != websocket.StatusNormalClosure {
			lvl = logx.Log.Warn()
		}
		lvl.Str("reason", ce.Reason).Int("code", int(ce.Code)).Msg("server connection closed")
	case errors.Is(err, context.Canceled):
		logx.Log.Info().Msg("connection closed")
	default:
		logx.Log.Warn().Err(err).Msg("server read error")
	}
	if r.OnDisconnect != nil {
		r.OnDisconnect(err)
	}
}

// serve pumps fragments into the reassembler until the source fails.
func (r *Receiver) serve(ctx context.Context, src FragmentSource) error {
	for {
		f, err := src.Next(ctx)
		if err != nil {
			return err
		}
		msg, st := r.reasm.Push(f)
		switch st {
		case Complete:
			metrics.RecordMessageReceived(len(msg))
			r.queue.Offer(msg)
		case RejectedOversize, RejectedBounds:
			metrics.RecordReassemblyRejected(st.String())
			logx.Log.Warn().Str("reason", st.String()).Int("offset", f.Offset).Int("total", f.Total).Int("len", len(f.Data)).Msg("discarding message")
		}
	}
}

func (r *Receiver) keepalive(ctx context.Context) {
	t := time.NewTicker(r.tick)
	defer t.Stop()
	last := r.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			last = r.keepaliveStep(last)
		}
	}
}

// keepaliveStep sends a keepalive when the interval has elapsed since last and
// returns the new reference time. Failures are retried on the next tick.
func (r *Receiver) keepaliveStep(last time.Time) time.Time {
	now := r.now()
	if !r.out.Connected() || now.Sub(last) < r.opts.KeepaliveInterval {
		return last
	}
	var pkt [protocol.KeepaliveSize]byte
	if _, err := protocol.PutKeepalive(pkt[:]); err != nil {
		return last
	}
	if !r.out.TrySend(outbound.KindKeepalive, pkt[:], outbound.DefaultWait) {
		return last
	}
	if r.OnKeepalive != nil {
		r.OnKeepalive(now)
	}
	return now
}

// OpenURL asks the server to navigate to url. It succeeds only while
// connected; the url is then remembered and resent after each reconnect.
func (r *Receiver) OpenURL(url string) bool {
	if url == "" || !r.out.Connected() || protocol.OpenURLSize(url) > r.opts.MaxMessageBytes {
		return false
	}
	if !r.sendURL(url) {
		return false
	}
	r.mu.Lock()
	r.url = url
	r.mu.Unlock()
	return true
}

// CurrentURL returns the url that will be resent on reconnect.
func (r *Receiver) CurrentURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

func (r *Receiver) sendURL(url string) bool {
	pkt, err := protocol.Marshal(protocol.OpenURL{URL: url})
	if err != nil {
		logx.Log.Warn().Err(err).Msg("encode open_url")
		return false
	}
	return r.out.TrySend(outbound.KindOpenURL, pkt, urlSendWait)
}

type wsConn struct{ c *websocket.Conn }

func (w wsConn) Write(ctx context.Context, p []byte) error {
	return w.c.Write(ctx, websocket.MessageBinary, p)
}
