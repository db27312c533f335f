package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BoardMetrics exposes counters/histograms for backend fetches and live pages.
type BoardMetrics struct {
	fetchTotal     *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	staleDiscarded prometheus.Counter
	liveClients    prometheus.Gauge
	sessions       prometheus.Gauge
	renders        prometheus.Counter
}

func NewBoardMetrics(reg prometheus.Registerer) *BoardMetrics {
	m := &BoardMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "board",
			Name:      "backend_fetch_total",
			Help:      "Backend fetches by action and outcome",
		}, []string{"action", "outcome"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "board",
			Name:      "backend_fetch_seconds",
			Help:      "Latency of backend fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "board",
			Name:      "stale_responses_discarded_total",
			Help:      "Bookings responses dropped because the selected date moved on",
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salon",
			Subsystem: "board",
			Name:      "live_clients",
			Help:      "Open websocket connections receiving board updates",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "salon",
			Subsystem: "board",
			Name:      "sessions",
			Help:      "Open per-browser board sessions",
		}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "board",
			Name:      "renders_total",
			Help:      "Board snapshot changes",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency, m.staleDiscarded, m.liveClients, m.sessions, m.renders)
	return m
}

// ObserveFetch records one backend call. outcome is "ok" or an error class.
func (m *BoardMetrics) ObserveFetch(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(action, outcome).Inc()
	m.fetchLatency.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *BoardMetrics) StaleDiscarded() {
	if m == nil {
		return
	}
	m.staleDiscarded.Inc()
}

func (m *BoardMetrics) ClientConnected() {
	if m == nil {
		return
	}
	m.liveClients.Inc()
}

func (m *BoardMetrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.liveClients.Dec()
}

func (m *BoardMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *BoardMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func (m *BoardMetrics) Rendered() {
	if m == nil {
		return
	}
	m.renders.Inc()
}
