package metrics

import "github.com/prometheus/client_golang/prometheus"

// Frame drop reasons.
const (
	DropDecode    = "decode"
	DropDispatch  = "dispatch"
	DropDuplicate = "duplicate"
)

// SessionMetrics holds Prometheus metrics for an EventSub session.
type SessionMetrics struct {
	FramesReceived     prometheus.Counter
	FramesDropped      *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	ConnectionAttempts *prometheus.CounterVec
	Reconnects         *prometheus.CounterVec
	State              prometheus.Gauge
	BackoffSeconds     prometheus.Histogram
}

// NewSessionMetrics creates and registers session metrics on the given registry.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "frames_received_total",
			Help:      "Total number of frames read from the WebSocket.",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "frames_dropped_total",
			Help:      "Total number of frames dropped without a listener callback, by reason.",
		}, []string{"reason"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "notifications_total",
			Help:      "Total number of notifications delivered, by subscription type and version.",
		}, []string{"subscription_type", "subscription_version"}),
		ConnectionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "connection_attempts_total",
			Help:      "Total number of connection attempts, by result.",
		}, []string{"result"}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "reconnects_total",
			Help:      "Total number of reconnects, by cause.",
		}, []string{"cause"}),
		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state",
			Help:      "Current connection state (0=idle through 7=closed, 8=reconnecting).",
		}),
		BackoffSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "backoff_seconds",
			Help:      "Delay waited before reconnecting.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
	}

	reg.MustRegister(
		m.FramesReceived,
		m.FramesDropped,
		m.Notifications,
		m.ConnectionAttempts,
		m.Reconnects,
		m.State,
		m.BackoffSeconds,
	)
	return m
}
