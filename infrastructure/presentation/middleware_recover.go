package presentation

import (
	"context"
	"fmt"

	"github.com/ahrav/go-luckydraw/internal/domain"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

// recoveringPresenter turns adapter panics into errors.
type recoveringPresenter struct {
	next ports.Presenter
}

// RecoverMiddleware converts a panic inside the wrapped presenter into a
// *domain.PresentationError.
func RecoverMiddleware() Middleware {
	return func(next ports.Presenter) ports.Presenter {
		return &recoveringPresenter{next: next}
	}
}

func (r *recoveringPresenter) Name() string { return r.next.Name() }

func (r *recoveringPresenter) Present(ctx context.Context, sequence []string) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = domain.NewPresentationError(r.next.Name(), fmt.Errorf("panic: %v", v))
		}
	}()
	return r.next.Present(ctx, sequence)
}
