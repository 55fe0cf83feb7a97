package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the transport's operational counters. Pass the same
// instance to the Hub and Handler and register it once.
type Metrics struct {
	ActiveConnections   prometheus.Gauge
	FramesIn            prometheus.Counter
	FramesOut           prometheus.Counter
	DroppedFrames       prometheus.Counter
	RateLimitRejections prometheus.Counter
	HeartbeatTimeouts   prometheus.Counter
	DeliveredSocket     prometheus.Counter
	FilteredSocket      prometheus.Counter
}

// NewMetrics creates the metric set and registers it with reg. Pass
// prometheus.DefaultRegisterer for the usual global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "notify", Subsystem: "realtime",
			Name: "active_connections", Help: "Live WebSocket connections.",
		}),
		FramesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notify", Subsystem: "realtime",
			Name: "frames_in_total", Help: "Inbound frames read from clients.",
		}),
		FramesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notify", Subsystem: "realtime",
			Name: "frames_out_total", Help: "Outbound frames written to clients.",
		}),
		DroppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notify", Subsystem: "realtime",
			Name: "dropped_frames_total", Help: "Frames dropped because a connection could not keep up.",
		}),
		RateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notify", Subsystem: "realtime",
			Name: "rate_limit_rejections_total", Help: "Inbound messages dropped by the per-connection rate limiter.",
		}),
		HeartbeatTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notify", Subsystem: "realtime",
			Name: "heartbeat_timeouts_total", Help: "Connections force-closed after missing pongs.",
		}),
		DeliveredSocket: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notify", Subsystem: "realtime",
			Name: "delivered_total", Help: "Notifications written to sockets.",
		}),
		FilteredSocket: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notify", Subsystem: "realtime",
			Name: "filtered_total", Help: "Notifications dropped by per-connection subscription filters.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ActiveConnections, m.FramesIn, m.FramesOut, m.DroppedFrames,
			m.RateLimitRejections, m.HeartbeatTimeouts, m.DeliveredSocket, m.FilteredSocket,
		)
	}
	return m
}

// nopMetrics backs components created without metrics so call sites skip
// nil checks.
func nopMetrics() *Metrics {
	return NewMetrics(nil)
}
