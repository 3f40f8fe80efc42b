package domain

import (
	"fmt"
	"time"
)

// DrawState is the externally observable state of a DrawController.
// Settled is not a state: the controller returns to Idle as part of the
// same settlement that reports the winner.
type DrawState int

const (
	// StateIdle accepts draws and reconfiguration.
	StateIdle DrawState = iota

	// StateSpinning means a sequence has been handed to the presentation
	// port and the controller is waiting for it to settle.
	StateSpinning

	// StateClosed is terminal. The controller rejects further draws.
	StateClosed
)

// String returns the lowercase name of the state.
func (s DrawState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpinning:
		return "spinning"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// DrawConfiguration holds the per-controller draw policy. It is fixed for
// the duration of a draw.
type DrawConfiguration struct {
	// PresentationLength is the number of labels in a fresh draw's sequence.
	PresentationLength int `yaml:"presentation_length" validate:"min=1,max=10000"`

	// RemoveWinnerOnDraw samples without replacement when set.
	RemoveWinnerOnDraw bool `yaml:"remove_winner_on_draw"`

	// ReserveContinuitySlot shortens every non-first sequence by one label.
	ReserveContinuitySlot bool `yaml:"reserve_continuity_slot"`

	// KeepDuplicates keeps repeated labels when candidates are replaced.
	KeepDuplicates bool `yaml:"keep_duplicates"`
}

// DefaultDrawConfiguration returns the standard reel policy: 30 labels,
// winners removed, continuity slot reserved, duplicates collapsed.
func DefaultDrawConfiguration() DrawConfiguration {
	return DrawConfiguration{
		PresentationLength:    DefaultPresentationLength,
		RemoveWinnerOnDraw:    true,
		ReserveContinuitySlot: true,
	}
}

// Validate reports whether the configuration can drive a draw.
func (c DrawConfiguration) Validate() error {
	if c.PresentationLength < 1 {
		ve := NewValidationError("DrawConfiguration")
		ve.AddError(fmt.Sprintf("presentation length must be at least 1, got %d", c.PresentationLength))
		return ve
	}
	return nil
}

// DrawResult is the outcome of one successful draw. It is ephemeral and
// never persisted.
type DrawResult struct {
	// ID uniquely identifies this draw for logs and traces.
	ID string `json:"id"`

	// Sequence is exactly what was handed to the presentation port.
	Sequence []string `json:"sequence"`

	// Winner is Sequence[len(Sequence)-1], captured when the sequence was
	// generated.
	Winner string `json:"winner"`

	// Removed reports whether the winner was taken out of the pool.
	Removed bool `json:"removed"`

	// PoolSize is the number of candidates left after settlement.
	PoolSize int `json:"pool_size"`

	// Duration measures the time from spin start to settlement.
	Duration time.Duration `json:"duration"`
}

// WinnerOf returns the last element of seq, the only authoritative source
// of a draw's winner.
func WinnerOf(seq []string) (string, bool) {
	if len(seq) == 0 {
		return "", false
	}
	return seq[len(seq)-1], true
}
