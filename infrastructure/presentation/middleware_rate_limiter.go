package presentation

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

// rateLimitedPresenter paces spins with a token bucket.
type rateLimitedPresenter struct {
	next    ports.Presenter
	limiter *rate.Limiter
}

// RateLimitMiddleware limits spins to limit per second with the given
// burst. The limiter is shared by every presenter the middleware wraps,
// so one instance can pace all reels of a deployment together.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next ports.Presenter) ports.Presenter {
		return &rateLimitedPresenter{next: next, limiter: limiter}
	}
}

func (r *rateLimitedPresenter) Name() string { return r.next.Name() }

// Present waits for a token before starting the spin.
func (r *rateLimitedPresenter) Present(ctx context.Context, sequence []string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrRateLimited, err)
	}
	return r.next.Present(ctx, sequence)
}
