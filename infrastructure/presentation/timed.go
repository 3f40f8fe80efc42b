package presentation

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-luckydraw/internal/domain"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

var _ ports.Presenter = (*TimedPresenter)(nil)

// Frame is one step of a spinning reel.
type Frame struct {
	// Index is the position of Label in the sequence.
	Index int
	// Total is the sequence length.
	Total int
	// Label is the candidate shown in this frame.
	Label string
	// Final is set on the last frame, which always shows the winner.
	Final bool
}

// FrameSink renders frames produced by a TimedPresenter.
type FrameSink interface {
	// Render draws f. An error stops the spin and fails the draw.
	Render(f Frame) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(Frame) error

// Render implements FrameSink.
func (f FrameSinkFunc) Render(frame Frame) error { return f(frame) }

// TimedPresenter plays a sequence as a reel that starts fast and slows
// down, spreading the frames over a fixed spin duration.
type TimedPresenter struct {
	name          string
	sink          FrameSink
	spinDuration  time.Duration
	frameInterval time.Duration
}

// NewTimedPresenter creates a presenter that renders into sink. The spin
// lasts spinDuration in total and its first gap is frameInterval.
func NewTimedPresenter(sink FrameSink, spinDuration, frameInterval time.Duration) (*TimedPresenter, error) {
	if spinDuration < 0 || frameInterval < 0 {
		return nil, fmt.Errorf("%w: durations cannot be negative", domain.ErrInvalidConfiguration)
	}
	return &TimedPresenter{
		name:          "timed",
		sink:          sink,
		spinDuration:  spinDuration,
		frameInterval: frameInterval,
	}, nil
}

// WithName returns a copy of p that reports name from Name.
func (p *TimedPresenter) WithName(name string) *TimedPresenter {
	cp := *p
	cp.name = name
	return &cp
}

// Name implements ports.Presenter.
func (p *TimedPresenter) Name() string { return p.name }

// Present renders each label in order and returns after the final frame.
func (p *TimedPresenter) Present(ctx context.Context, sequence []string) error {
	if p.sink == nil {
		return domain.ErrPresentationTargetUnavailable
	}
	if len(sequence) == 0 {
		return nil
	}

	delays := FrameSchedule(len(sequence), p.spinDuration, p.frameInterval)
	for i, label := range sequence {
		frame := Frame{Index: i, Total: len(sequence), Label: label, Final: i == len(sequence)-1}
		if err := p.sink.Render(frame); err != nil {
			return fmt.Errorf("render frame %d: %w", i, err)
		}
		if frame.Final {
			break
		}

		if err := sleep(ctx, delays[i]); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FrameSchedule returns the n-1 gaps between n frames. The gaps never
// shrink and add up to total; the first is at least first. When first
// leaves no room to slow down, the gaps are even.
func FrameSchedule(n int, total, first time.Duration) []time.Duration {
	if n < 2 {
		return nil
	}
	gaps := n - 1
	delays := make([]time.Duration, gaps)

	extra := total - first*time.Duration(gaps)
	if extra <= 0 {
		even := total / time.Duration(gaps)
		for i := range delays {
			delays[i] = even
		}
		return delays
	}

	// Quadratic ease-out: the extra time is spread with weight (i+1)^2.
	var weightSum float64
	for i := 1; i <= gaps; i++ {
		weightSum += float64(i * i)
	}
	var assigned time.Duration
	for i := range delays {
		w := float64((i + 1) * (i + 1))
		share := time.Duration(float64(extra) * w / weightSum)
		delays[i] = first + share
		assigned += share
	}
	// Rounding leaves a remainder; give it to the slowest gap.
	delays[gaps-1] += extra - assigned
	return delays
}
