package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

// newTestMetrics registers collectors on a private registry so tests do
// not collide on the global one.
func newTestMetrics(t *testing.T) (*PrometheusMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMetrics(reg, "luckydraw")
	require.NoError(t, err)
	return pm, reg
}

func TestNewPrometheusMetrics(t *testing.T) {
	pm, reg := newTestMetrics(t)

	assert.NotNil(t, pm.drawsTotal)
	assert.NotNil(t, pm.poolSize)
	assert.NotNil(t, pm.sequenceLength)
	assert.NotNil(t, pm.presentationsTotal)
	assert.NotNil(t, pm.latency)

	_, err := NewPrometheusMetrics(reg, "luckydraw")
	var metricsErr *ports.MetricsError
	require.ErrorAs(t, err, &metricsErr)
	assert.Equal(t, "draws_total", metricsErr.Metric)
	assert.Equal(t, "Register", metricsErr.Operation)
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}

func TestNewPrometheusMetrics_RollsBackOnConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	// Occupy a name registered late so earlier collectors succeed first.
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "luckydraw", Name: "system_state"}))

	_, err := NewPrometheusMetrics(reg, "luckydraw")
	var metricsErr *ports.MetricsError
	require.ErrorAs(t, err, &metricsErr)
	assert.Equal(t, "system_state", metricsErr.Metric)

	// Nothing from the failed attempt is left behind.
	reg.Unregister(prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "luckydraw", Name: "system_state"}))
	_, err = NewPrometheusMetrics(reg, "luckydraw")
	assert.NoError(t, err)
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm, _ := newTestMetrics(t)

	pm.RecordCounter("draws_total", 1, map[string]string{"reel": "lobby", "status": "success"})
	pm.RecordCounter("draws_total", 1, map[string]string{"reel": "lobby", "status": "success"})
	pm.RecordCounter("draws_total", 1, map[string]string{"reel": "lobby", "status": "empty_pool"})
	pm.RecordCounter("presentations_total", 1, map[string]string{"presenter": "timed", "status": "error"})
	pm.RecordCounter("custom_events", 3, map[string]string{})

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.drawsTotal.WithLabelValues("lobby", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.drawsTotal.WithLabelValues("lobby", "empty_pool")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.presentationsTotal.WithLabelValues("timed", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("custom_events", "unknown")))
}

func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm, _ := newTestMetrics(t)

	pm.RecordGauge("pool_size", 7, map[string]string{"reel": "lobby"})
	pm.RecordGauge("pool_size", 6, map[string]string{"reel": "lobby"})
	pm.RecordGauge("connected_clients", 2, map[string]string{"presenter": "websocket"})

	assert.Equal(t, 6.0, testutil.ToFloat64(pm.poolSize.WithLabelValues("lobby")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.systemGauges.WithLabelValues("connected_clients", "websocket")))
}

func TestPrometheusMetrics_Histograms(t *testing.T) {
	pm, reg := newTestMetrics(t)

	pm.RecordHistogram("sequence_length", 30, map[string]string{"reel": "lobby"})
	pm.RecordHistogram("sequence_length", 29, map[string]string{"reel": "lobby"})
	pm.RecordHistogram("frames", 12, map[string]string{"presenter": "timed"})
	pm.RecordLatency("draw", 150*time.Millisecond, map[string]string{"reel": "lobby"})

	count, err := testutil.GatherAndCount(reg, "luckydraw_sequence_length")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "one series for the lobby reel")

	expected := `
# HELP luckydraw_sequence_length Number of labels handed to the presenter per draw.
# TYPE luckydraw_sequence_length histogram
luckydraw_sequence_length_bucket{reel="lobby",le="5"} 0
luckydraw_sequence_length_bucket{reel="lobby",le="10"} 0
luckydraw_sequence_length_bucket{reel="lobby",le="15"} 0
luckydraw_sequence_length_bucket{reel="lobby",le="20"} 0
luckydraw_sequence_length_bucket{reel="lobby",le="25"} 0
luckydraw_sequence_length_bucket{reel="lobby",le="30"} 2
luckydraw_sequence_length_bucket{reel="lobby",le="35"} 2
luckydraw_sequence_length_bucket{reel="lobby",le="40"} 2
luckydraw_sequence_length_bucket{reel="lobby",le="45"} 2
luckydraw_sequence_length_bucket{reel="lobby",le="50"} 2
luckydraw_sequence_length_bucket{reel="lobby",le="+Inf"} 2
luckydraw_sequence_length_sum{reel="lobby"} 59
luckydraw_sequence_length_count{reel="lobby"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "luckydraw_sequence_length"))

	count, err = testutil.GatherAndCount(reg, "luckydraw_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSource(t *testing.T) {
	assert.Equal(t, "lobby", source(map[string]string{"reel": "lobby", "presenter": "timed"}))
	assert.Equal(t, "timed", source(map[string]string{"presenter": "timed"}))
	assert.Equal(t, "unknown", source(map[string]string{"reel": ""}))
	assert.Equal(t, "unknown", source(nil))
}
