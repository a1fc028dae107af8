package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaspardpetit/rwv/internal/logx"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "rwv_build_info",
			Help:        "Build information",
			ConstLabels: prometheus.Labels{"component": "device"},
		},
		[]string{"date", "sha", "version"},
	)

	connectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rwv_connected_to_server",
		Help: "Whether the device is connected to the server (1 or 0)",
	})

	messagesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rwv_messages_received_total",
		Help: "Complete messages reassembled from the server",
	})

	messageBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rwv_message_bytes_total",
		Help: "Bytes of complete messages reassembled from the server",
	})

	messagesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rwv_messages_dropped_total",
		Help: "Complete messages dropped because the decode queue was full",
	})

	reassemblyRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwv_reassembly_rejected_total",
			Help: "Messages discarded during reassembly",
		},
		[]string{"reason"},
	)

	messagesIgnored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwv_messages_ignored_total",
			Help: "Messages dropped by the decode worker",
		},
		[]string{"reason"},
	)

	tilesRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwv_tiles_rendered_total",
			Help: "Tiles drawn, by decode path",
		},
		[]string{"path"},
	)

	tilesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rwv_tiles_skipped_total",
		Help: "Tiles skipped for degenerate or oversized geometry",
	})

	tilesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rwv_tiles_failed_total",
		Help: "Tiles that could not be decoded by any path",
	})

	framesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rwv_frames_completed_total",
		Help: "Frames whose last message was rendered",
	})

	frameDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rwv_frame_render_seconds",
		Help:    "Time from the first to the last message of a frame",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	sends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwv_outbound_packets_total",
			Help: "Outbound packets by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// Register registers all metrics with the provided registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(
		buildInfo,
		connectedGauge,
		messagesReceived,
		messageBytes,
		messagesDropped,
		reassemblyRejected,
		messagesIgnored,
		tilesRendered,
		tilesSkipped,
		tilesFailed,
		framesCompleted,
		frameDuration,
		sends,
	)
}

// SetBuildInfo sets the build info metric for the device.
func SetBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

func SetConnected(v bool) {
	if v {
		connectedGauge.Set(1)
	} else {
		connectedGauge.Set(0)
	}
}

// RecordMessageReceived counts one reassembled message of n bytes.
func RecordMessageReceived(n int) {
	messagesReceived.Inc()
	messageBytes.Add(float64(n))
}

func RecordMessageDropped() { messagesDropped.Inc() }

// RecordReassemblyRejected counts a discarded in-progress message.
func RecordReassemblyRejected(reason string) {
	reassemblyRejected.WithLabelValues(reason).Inc()
}

// RecordMessageIgnored counts a message the decode worker did not act on.
func RecordMessageIgnored(reason string) {
	messagesIgnored.WithLabelValues(reason).Inc()
}

// RecordTileRendered counts a drawn tile for the given decode path.
func RecordTileRendered(path string) {
	tilesRendered.WithLabelValues(path).Inc()
}

func RecordTileSkipped() { tilesSkipped.Inc() }

func RecordTileFailed() { tilesFailed.Inc() }

// ObserveFrame records a completed frame.
func ObserveFrame(d time.Duration) {
	framesCompleted.Inc()
	frameDuration.Observe(d.Seconds())
}

// RecordSend counts an outbound packet attempt.
func RecordSend(kind, result string) {
	sends.WithLabelValues(kind, result).Inc()
}

// StartServer starts an HTTP server exposing Prometheus metrics on /metrics.
// It returns the address it is listening on.
func StartServer(ctx context.Context, addr string) (string, error) {
	reg := prometheus.NewRegistry()
	Register(reg)
	reg.MustRegister(prometheus.NewGoCollector())
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	actual := ln.Addr().String()
	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(c)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logx.Log.Error().Err(err).Str("addr", actual).Msg("metrics server error")
		}
	}()
	return actual, nil
}
