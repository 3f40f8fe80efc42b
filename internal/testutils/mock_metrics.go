package testutils

import (
	"sync"
	"time"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

var _ ports.MetricsCollector = (*MockMetricsCollector)(nil)

// MetricCall records one call made to MockMetricsCollector.
type MetricCall struct {
	Kind   string
	Metric string
	Value  float64
	Labels map[string]string
}

// MockMetricsCollector records metric calls for assertions. It is safe for
// concurrent use.
type MockMetricsCollector struct {
	mu    sync.Mutex
	calls []MetricCall
}

// NewMockMetricsCollector creates an empty collector.
func NewMockMetricsCollector() *MockMetricsCollector { return &MockMetricsCollector{} }

func (m *MockMetricsCollector) record(kind, metric string, value float64, labels map[string]string) {
	cp := make(map[string]string, len(labels))
	for k, v := range labels {
		cp[k] = v
	}
	m.mu.Lock()
	m.calls = append(m.calls, MetricCall{Kind: kind, Metric: metric, Value: value, Labels: cp})
	m.mu.Unlock()
}

// RecordLatency implements ports.MetricsCollector.
func (m *MockMetricsCollector) RecordLatency(operation string, d time.Duration, labels map[string]string) {
	m.record("latency", operation, d.Seconds(), labels)
}

// RecordCounter implements ports.MetricsCollector.
func (m *MockMetricsCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	m.record("counter", metric, value, labels)
}

// RecordGauge implements ports.MetricsCollector.
func (m *MockMetricsCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	m.record("gauge", metric, value, labels)
}

// RecordHistogram implements ports.MetricsCollector.
func (m *MockMetricsCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.record("histogram", metric, value, labels)
}

// Calls returns a copy of every recorded call.
func (m *MockMetricsCollector) Calls() []MetricCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MetricCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CounterTotal sums counter increments for metric whose labels include
// every pair in match.
func (m *MockMetricsCollector) CounterTotal(metric string, match map[string]string) float64 {
	var total float64
	for _, c := range m.Calls() {
		if c.Kind != "counter" || c.Metric != metric {
			continue
		}
		ok := true
		for k, v := range match {
			if c.Labels[k] != v {
				ok = false
				break
			}
		}
		if ok {
			total += c.Value
		}
	}
	return total
}
