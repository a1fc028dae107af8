// Package device wires the display client together: connection, decode
// pipeline, renderer, touch input and the local status surfaces.
package device

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gaspardpetit/rwv/internal/config"
	"github.com/gaspardpetit/rwv/internal/decode"
	"github.com/gaspardpetit/rwv/internal/display"
	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/metrics"
	"github.com/gaspardpetit/rwv/internal/outbound"
	"github.com/gaspardpetit/rwv/internal/render"
	"github.com/gaspardpetit/rwv/internal/touch"
	"github.com/gaspardpetit/rwv/internal/transport"
)

const outboundWriteTimeout = time.Second

// Device is one display client bound to one surface.
type Device struct {
	cfg      config.DeviceConfig
	id       string
	uri      string
	out      *outbound.Channel
	queue    *transport.Queue
	recv     *transport.Receiver
	worker   *decode.Worker
	renderer *render.Renderer
	touch    *touch.Listener
}

// New builds the pipeline for surface. Nothing is started.
func New(cfg config.DeviceConfig, surface display.Surface) *Device {
	d := &Device{cfg: cfg, id: cfg.ResolveDeviceID()}
	d.uri = cfg.BuildURI(d.id, surface.Width(), surface.Height())

	d.out = outbound.New(outboundWriteTimeout)
	d.queue = transport.NewQueue(cfg.QueueDepth)
	d.queue.OnDrop = messageDropped

	d.recv = transport.NewReceiver(transport.Options{
		URI:               d.uri,
		MaxMessageBytes:   cfg.MaxMessageBytes,
		BufferSize:        cfg.BufferSize,
		KeepaliveInterval: cfg.KeepaliveInterval,
		Reconnect:         cfg.Reconnect,
		StartURL:          cfg.URL,
	}, d.out, d.queue)
	d.recv.OnConnect = func() { setConnected(true) }
	d.recv.OnDisconnect = func(err error) {
		setConnected(false)
		if err != nil && !errors.Is(err, context.Canceled) {
			SetLastError(err.Error())
		}
	}
	d.recv.OnKeepalive = setLastKeepalive

	d.renderer = render.New(surface, render.Options{
		Packer:      render.Packer{Order: display.ParseColorOrder(cfg.ColorOrder), BigEndian: cfg.BigEndian},
		Accelerated: cfg.AcceleratedDecode,
	})
	d.worker = decode.New(d.queue.C, d.renderer, d.out, surface.Width(), surface.Height())
	d.worker.OnFrame = func(_ uint32, _ int, dur time.Duration) { frameRendered(dur) }

	d.touch = touch.NewListener(d.out, cfg.MoveInterval)

	SetDeviceInfo(d.id, cfg.Server, surface.Width(), surface.Height(), d.renderer.Accelerated())
	SetURL(cfg.URL)
	return d
}

// ID returns the device identifier announced to the server.
func (d *Device) ID() string { return d.id }

// URI returns the websocket URI the device connects to.
func (d *Device) URI() string { return d.uri }

// Touch returns the listener forwarding pointer input.
func (d *Device) Touch() *touch.Listener { return d.touch }

// OpenURL asks the server to show url. It fails when not connected.
func (d *Device) OpenURL(url string) bool {
	if !d.recv.OpenURL(url) {
		return false
	}
	SetURL(url)
	return true
}

// Run starts the pipeline and blocks until ctx is done or the connection
// ends with reconnect disabled. events may be nil when there is no touch
// input.
func (d *Device) Run(ctx context.Context, events <-chan touch.Event) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	if d.cfg.StatusAddr != "" {
		addr, err := StartStatusServer(gctx, d.cfg.StatusAddr, d, d.cfg.AllowedOrigins)
		if err != nil {
			return err
		}
		logx.Log.Info().Str("addr", addr).Msg("status server listening")
	}
	if d.cfg.MetricsAddr != "" {
		addr, err := metrics.StartServer(gctx, d.cfg.MetricsAddr)
		if err != nil {
			return err
		}
		logx.Log.Info().Str("addr", addr).Msg("metrics server listening")
	}
	if d.cfg.RedisURL != "" {
		m, err := NewMirror(gctx, d.cfg.RedisURL, d.id)
		if err != nil {
			logx.Log.Warn().Err(err).Msg("redis mirror disabled")
		} else {
			g.Go(func() error {
				m.Run(gctx)
				return nil
			})
		}
	}

	SetState("connecting")
	logx.Log.Info().Str("device", d.id).Str("uri", d.uri).Msg("starting display client")
	g.Go(func() error { return d.worker.Run(gctx) })
	g.Go(func() error {
		// the pipeline stops with the connection when reconnect is off
		defer stop()
		return d.recv.Run(gctx)
	})
	if events != nil {
		g.Go(func() error { return d.touch.Pump(gctx, events) })
	}

	err := g.Wait()
	SetState("stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
