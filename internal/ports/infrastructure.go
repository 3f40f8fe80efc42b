package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-luckydraw/internal/domain"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus,
// OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like completed draws, rejections, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like pool size.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like sequence lengths.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// DrawObserver receives lifecycle notifications for every draw that gets
// past precondition checks. Implementations must be safe for concurrent
// use; independent controllers may share one observer.
type DrawObserver interface {
	// DrawStarted is called after the controller enters Spinning. The
	// returned context is passed to the presenter and to DrawFinished, so
	// an observer can carry a span through the draw.
	DrawStarted(ctx context.Context, drawID string, poolSize int) context.Context

	// DrawFinished is called exactly once per started draw. result is nil
	// when err is non-nil.
	DrawFinished(ctx context.Context, drawID string, result *domain.DrawResult, err error)
}

// CandidateSource loads a candidate list from outside the engine, such as
// a file or a database table.
type CandidateSource interface {
	// Load returns the candidate labels in source order. Filtering and
	// deduplication are left to the caller.
	Load(ctx context.Context) ([]string, error)
}
