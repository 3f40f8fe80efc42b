package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

var _ ports.CandidateSource = (*retrySource)(nil)

// retrySource reloads a failing source with exponential backoff.
type retrySource struct {
	next       ports.CandidateSource
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// WithRetry wraps next so that a failed Load is retried up to maxRetries
// times. Delays start at baseDelay, double per attempt with jitter, and
// are capped at maxDelay. With maxRetries < 1 next is returned unchanged.
func WithRetry(next ports.CandidateSource, maxRetries int, baseDelay, maxDelay time.Duration) ports.CandidateSource {
	if maxRetries < 1 {
		return next
	}
	return &retrySource{
		next:       next,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// Load implements ports.CandidateSource.
func (r *retrySource) Load(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		labels, err := r.next.Load(ctx)
		if err == nil {
			return labels, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == r.maxRetries {
			break
		}

		timer := time.NewTimer(r.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("load failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *retrySource) delay(attempt int) time.Duration {
	attempt = min(max(attempt, 0), 30)
	d := r.baseDelay << attempt

	// Jitter of ±25%.
	// #nosec G404 - jitter does not need a secure source
	d = d - d/4 + time.Duration(rand.Float64()*float64(d)/2)

	if d > r.maxDelay || d < 0 {
		d = r.maxDelay
	}
	return d
}
