package presentation

import (
	"context"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

var _ ports.Presenter = InstantPresenter{}

// InstantPresenter settles immediately without rendering anything. It
// suits headless hosts, simulations, and tests.
type InstantPresenter struct{}

// Name implements ports.Presenter.
func (InstantPresenter) Name() string { return "instant" }

// Present implements ports.Presenter. It only fails if ctx is already done.
func (InstantPresenter) Present(ctx context.Context, _ []string) error {
	return ctx.Err()
}
