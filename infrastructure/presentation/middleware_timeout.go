package presentation

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

// timeoutPresenter bounds how long a single presentation may run.
type timeoutPresenter struct {
	next    ports.Presenter
	timeout time.Duration
}

// TimeoutMiddleware fails a presentation that has not settled within
// timeout. The wrapped presenter sees a context with that deadline and
// must honour it.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next ports.Presenter) ports.Presenter {
		return &timeoutPresenter{next: next, timeout: timeout}
	}
}

func (t *timeoutPresenter) Name() string { return t.next.Name() }

// Present runs the wrapped presenter under a deadline and reports expiry
// as ports.ErrTimeout.
func (t *timeoutPresenter) Present(ctx context.Context, sequence []string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	err := t.next.Present(ctx, sequence)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %s: %w", ports.ErrTimeout, t.timeout, err)
	}
	return err
}
