package presentation

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-luckydraw/internal/domain"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

// metricsPresenter records latency and outcome of every presentation.
type metricsPresenter struct {
	next      ports.Presenter
	collector ports.MetricsCollector
}

// MetricsMiddleware reports presentation latency, frame counts, and
// outcomes to collector.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next ports.Presenter) ports.Presenter {
		return &metricsPresenter{next: next, collector: collector}
	}
}

func (m *metricsPresenter) Name() string { return m.next.Name() }

// Present forwards to the wrapped presenter and records the result.
func (m *metricsPresenter) Present(ctx context.Context, sequence []string) error {
	start := time.Now()
	err := m.next.Present(ctx, sequence)

	if m.collector == nil {
		return err
	}

	labels := map[string]string{
		"presenter": m.next.Name(),
		"status":    presentationStatus(err),
	}
	m.collector.RecordLatency("present", time.Since(start), labels)
	m.collector.RecordCounter("presentations_total", 1, labels)
	m.collector.RecordHistogram("presentation_frames", float64(len(sequence)), labels)
	return err
}

func presentationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrPresentationTargetUnavailable):
		return "target_unavailable"
	case errors.Is(err, ports.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ports.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
