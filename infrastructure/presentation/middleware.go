// Package presentation provides presentation adapters and the middleware
// that decorates them with timeouts, pacing, metrics, and tracing.
package presentation

import (
	"github.com/ahrav/go-luckydraw/internal/ports"
)

// Middleware wraps a presenter with additional behavior.
type Middleware func(ports.Presenter) ports.Presenter

// Chain applies middleware so that the first one listed is the outermost.
func Chain(p ports.Presenter, middleware ...Middleware) ports.Presenter {
	for i := len(middleware) - 1; i >= 0; i-- {
		p = middleware[i](p)
	}
	return p
}
