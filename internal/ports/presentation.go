// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"
)

// Presenter is the presentation port a host implements to animate a draw.
// The engine does not know what a reel looks like; it hands over the
// ordered labels and waits for the visual to settle.
type Presenter interface {
	// Name returns a short identifier used in logs, metrics, and errors.
	Name() string

	// Present renders sequence and returns once the visual has settled on
	// sequence[len(sequence)-1]. The adapter owns all timing; it must
	// eventually return.
	//
	// Present must return an error wrapping
	// domain.ErrPresentationTargetUnavailable when its rendering target is
	// missing or destroyed. Any returned error fails the draw without
	// touching the candidate pool.
	//
	// The context parameter allows for cancellation and deadline propagation.
	// Presenters should respect context cancellation and return promptly.
	//
	// Example:
	//
	//	if err := presenter.Present(ctx, seq); err != nil {
	//	    return fmt.Errorf("present via %s: %w", presenter.Name(), err)
	//	}
	Present(ctx context.Context, sequence []string) error
}

// PresenterFunc adapts an ordinary function to the Presenter interface.
type PresenterFunc func(ctx context.Context, sequence []string) error

// Name implements Presenter.
func (f PresenterFunc) Name() string { return "func" }

// Present implements Presenter by calling f.
func (f PresenterFunc) Present(ctx context.Context, sequence []string) error {
	return f(ctx, sequence)
}
