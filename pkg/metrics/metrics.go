package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the insight engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive     prometheus.Gauge
	SessionsTotal      *prometheus.CounterVec
	AuthRejections     *prometheus.CounterVec
	SegmentsTotal      *prometheus.CounterVec
	InsightsTotal      *prometheus.CounterVec
	CooldownBlocks     *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	PersistDuration    prometheus.Histogram
}

// New creates a Metrics instance on its own registry
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sales_mentor"
	}

	registry := prometheus.NewRegistry()

	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of authenticated call sessions",
		},
	)

	sessionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total call sessions by outcome",
		},
		[]string{"outcome"},
	)

	authRejections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_rejections_total",
			Help:      "Session handshakes rejected, by reason",
		},
		[]string{"reason"},
	)

	segmentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Inbound segment frames by result",
		},
		[]string{"result"},
	)

	insightsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_total",
			Help:      "Insights emitted by category and channel",
		},
		[]string{"category", "channel"},
	)

	cooldownBlocks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_blocks_total",
			Help:      "Trigger attempts suppressed by the cooldown layers",
		},
		[]string{"channel", "verdict"},
	)

	generationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Insight card generation latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"channel", "status"},
	)

	persistDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_persist_duration_seconds",
			Help:      "Segment persistence latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	registry.MustRegister(
		sessionsActive,
		sessionsTotal,
		authRejections,
		segmentsTotal,
		insightsTotal,
		cooldownBlocks,
		generationDuration,
		persistDuration,
	)

	return &Metrics{
		registry:           registry,
		SessionsActive:     sessionsActive,
		SessionsTotal:      sessionsTotal,
		AuthRejections:     authRejections,
		SegmentsTotal:      segmentsTotal,
		InsightsTotal:      insightsTotal,
		CooldownBlocks:     cooldownBlocks,
		GenerationDuration: generationDuration,
		PersistDuration:    persistDuration,
	}
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSessionStart records a session becoming authenticated
func (m *Metrics) RecordSessionStart() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

// RecordSessionEnd records the end of a previously started session
func (m *Metrics) RecordSessionEnd(outcome string) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthRejection records a rejected handshake
func (m *Metrics) RecordAuthRejection(reason string) {
	if m == nil {
		return
	}
	m.AuthRejections.WithLabelValues(reason).Inc()
	m.SessionsTotal.WithLabelValues("rejected").Inc()
}

// RecordSegment records an inbound frame result
func (m *Metrics) RecordSegment(result string) {
	if m == nil {
		return
	}
	m.SegmentsTotal.WithLabelValues(result).Inc()
}

// RecordPersist records a segment write
func (m *Metrics) RecordPersist(d time.Duration) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(d.Seconds())
}

// RecordCooldownBlock records a suppressed trigger
func (m *Metrics) RecordCooldownBlock(channel, verdict string) {
	if m == nil {
		return
	}
	m.CooldownBlocks.WithLabelValues(channel, verdict).Inc()
}

// RecordGeneration records one generation attempt
func (m *Metrics) RecordGeneration(channel, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationDuration.WithLabelValues(channel, status).Observe(d.Seconds())
}

// RecordInsight records an emitted insight
func (m *Metrics) RecordInsight(category, channel string) {
	if m == nil {
		return
	}
	m.InsightsTotal.WithLabelValues(category, channel).Inc()
}
