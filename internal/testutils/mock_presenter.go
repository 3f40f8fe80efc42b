// Package testutils provides fakes shared by tests: presenters, a metrics
// collector, and a recording tracer provider.
package testutils

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

var (
	_ ports.Presenter = (*MockPresenter)(nil)
	_ ports.Presenter = (*BlockingPresenter)(nil)
)

// MockPresenter provides a configurable Presenter for testing. It settles
// instantly unless Delay is set and records every sequence it is handed.
type MockPresenter struct {
	mu sync.Mutex

	// Response configuration
	Error error
	Delay time.Duration
	Panic any

	// Tracking
	Sequences [][]string
	Contexts  []context.Context
}

// NewMockPresenter creates a presenter that settles immediately.
func NewMockPresenter() *MockPresenter { return &MockPresenter{} }

// Name implements ports.Presenter.
func (m *MockPresenter) Name() string { return "mock" }

// Present records the sequence and then behaves as configured.
func (m *MockPresenter) Present(ctx context.Context, sequence []string) error {
	m.mu.Lock()
	m.Sequences = append(m.Sequences, slices.Clone(sequence))
	m.Contexts = append(m.Contexts, ctx)
	delay, err, p := m.Delay, m.Error, m.Panic
	m.mu.Unlock()

	if p != nil {
		panic(p)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// CallCount returns how many times Present was called.
func (m *MockPresenter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sequences)
}

// LastSequence returns the most recent sequence, or nil.
func (m *MockPresenter) LastSequence() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sequences) == 0 {
		return nil
	}
	return slices.Clone(m.Sequences[len(m.Sequences)-1])
}

// BlockingPresenter holds every Present call until Release is called, so a
// test can act while a draw is spinning.
type BlockingPresenter struct {
	started chan []string
	release chan error
}

// NewBlockingPresenter creates a BlockingPresenter.
func NewBlockingPresenter() *BlockingPresenter {
	return &BlockingPresenter{
		started: make(chan []string, 16),
		release: make(chan error, 16),
	}
}

// Name implements ports.Presenter.
func (b *BlockingPresenter) Name() string { return "blocking" }

// Present announces the sequence on Started and waits for Release or
// context cancellation.
func (b *BlockingPresenter) Present(ctx context.Context, sequence []string) error {
	b.started <- slices.Clone(sequence)
	select {
	case err := <-b.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Started delivers each sequence as its Present call begins.
func (b *BlockingPresenter) Started() <-chan []string { return b.started }

// Release settles one pending Present call with err.
func (b *BlockingPresenter) Release(err error) { b.release <- err }
