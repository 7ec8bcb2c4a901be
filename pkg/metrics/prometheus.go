package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsProcessed *prometheus.CounterVec
	alertsTotal     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	queueDepth      prometheus.Gauge
	riskScore       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geosentry_location_events_total",
				Help: "Total number of location events processed",
			},
			[]string{"source_app"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geosentry_alerts_total",
				Help: "Total number of alerts generated",
			},
			[]string{"type", "severity"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geosentry_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geosentry_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		queueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "geosentry_incident_queue_depth",
				Help: "Current depth of the incident ingress queue",
			},
		),
		riskScore: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geosentry_risk_score",
				Help:    "Distribution of per-event risk scores",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"level"},
		),
	}
}

// RecordEventProcessed records a processed location event.
func (r *Recorder) RecordEventProcessed(sourceApp string) {
	r.eventsProcessed.WithLabelValues(sourceApp).Inc()
}

// RecordAlert records a generated alert.
func (r *Recorder) RecordAlert(kind, severity string) {
	r.alertsTotal.WithLabelValues(kind, severity).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordQueueDepth records the incident queue depth.
func (r *Recorder) RecordQueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}

// RecordRiskScore records a computed risk score.
func (r *Recorder) RecordRiskScore(level string, score float64) {
	r.riskScore.WithLabelValues(level).Observe(score)
}
