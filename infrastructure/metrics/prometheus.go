// Package metrics exports draw and presentation metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements ports.MetricsCollector using Prometheus.
// Known metric names get dedicated collectors; anything else lands in the
// generic operation, gauge, and observation vectors.
type PrometheusMetrics struct {
	drawsTotal         *prometheus.CounterVec
	poolSize           *prometheus.GaugeVec
	sequenceLength     *prometheus.HistogramVec
	presentationsTotal *prometheus.CounterVec
	latency            *prometheus.HistogramVec
	operationCounter   *prometheus.CounterVec
	systemGauges       *prometheus.GaugeVec
	observations       *prometheus.HistogramVec
}

// NewPrometheusMetrics creates the collectors under namespace and
// registers them with reg. Passing prometheus.DefaultRegisterer exposes
// them on the default promhttp handler; tests pass a fresh registry.
//
// If any collector cannot be registered, those already registered are
// removed again and a *ports.MetricsError naming the metric is returned.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) (*PrometheusMetrics, error) {
	pm := &PrometheusMetrics{
		drawsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "draws_total",
				Help:      "Draw attempts by reel and outcome.",
			},
			[]string{"reel", "status"},
		),
		poolSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_size",
				Help:      "Candidates currently in each reel's pool.",
			},
			[]string{"reel"},
		),
		sequenceLength: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sequence_length",
				Help:      "Number of labels handed to the presenter per draw.",
				Buckets:   prometheus.LinearBuckets(5, 5, 10),
			},
			[]string{"reel"},
		),
		presentationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "presentations_total",
				Help:      "Presenter calls by adapter and outcome.",
			},
			[]string{"presenter", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of draw and presentation operations.",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5, 10, 30},
			},
			[]string{"operation", "source"},
		),
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Counters without a dedicated collector.",
			},
			[]string{"metric", "source"},
		),
		systemGauges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_state",
				Help:      "Gauges without a dedicated collector.",
			},
			[]string{"metric", "source"},
		),
		observations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "observations",
				Help:      "Histogram values without a dedicated collector.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric", "source"},
		),
	}

	collectors := []struct {
		name string
		c    prometheus.Collector
	}{
		{"draws_total", pm.drawsTotal},
		{"pool_size", pm.poolSize},
		{"sequence_length", pm.sequenceLength},
		{"presentations_total", pm.presentationsTotal},
		{"operation_duration_seconds", pm.latency},
		{"operations_total", pm.operationCounter},
		{"system_state", pm.systemGauges},
		{"observations", pm.observations},
	}
	for i, col := range collectors {
		if err := reg.Register(col.c); err != nil {
			for _, done := range collectors[:i] {
				reg.Unregister(done.c)
			}
			return nil, ports.NewMetricsError(col.name, "Register", err)
		}
	}
	return pm, nil
}

// source picks the label that identifies who reported a metric: the reel
// for controller metrics, the presenter for middleware metrics.
func source(labels map[string]string) string {
	if v := labels["reel"]; v != "" {
		return v
	}
	if v := labels["presenter"]; v != "" {
		return v
	}
	return "unknown"
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return fallback
}

// RecordLatency implements ports.MetricsCollector.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.latency.WithLabelValues(operation, source(labels)).Observe(duration.Seconds())
}

// RecordCounter implements ports.MetricsCollector.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "draws_total":
		pm.drawsTotal.WithLabelValues(source(labels), labelOr(labels, "status", "unknown")).Add(value)
	case "presentations_total":
		pm.presentationsTotal.WithLabelValues(source(labels), labelOr(labels, "status", "unknown")).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, source(labels)).Add(value)
	}
}

// RecordGauge implements ports.MetricsCollector.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	switch metric {
	case "pool_size":
		pm.poolSize.WithLabelValues(source(labels)).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric, source(labels)).Set(value)
	}
}

// RecordHistogram implements ports.MetricsCollector.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case "sequence_length":
		pm.sequenceLength.WithLabelValues(source(labels)).Observe(value)
	default:
		pm.observations.WithLabelValues(metric, source(labels)).Observe(value)
	}
}
