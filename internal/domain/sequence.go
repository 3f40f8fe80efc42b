package domain

import "fmt"

// DefaultPresentationLength is the number of labels a reel shows per draw
// when no length is configured.
const DefaultPresentationLength = 30

// SequenceOptions controls how a presentation sequence is sized.
type SequenceOptions struct {
	// TargetLength is the number of labels to present. Must be at least 1.
	TargetLength int

	// PriorDrawOccurred is set when the reel has already settled once since
	// the candidate list was last replaced.
	PriorDrawOccurred bool

	// ReserveContinuitySlot shortens the sequence by one after a prior draw
	// so the reel can continue from the label it last settled on instead of
	// jumping. The sequence never shrinks below one label.
	ReserveContinuitySlot bool
}

// BuildSequence shuffles pool once and repeats the permutation until it
// covers the target length, then truncates. The final element of the
// returned slice is the draw's winner.
func BuildSequence(pool []string, opts SequenceOptions, rng RNG) ([]string, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	if opts.TargetLength < 1 {
		return nil, fmt.Errorf("%w: presentation length must be at least 1, got %d",
			ErrInvalidConfiguration, opts.TargetLength)
	}

	length := opts.TargetLength
	if opts.PriorDrawOccurred && opts.ReserveContinuitySlot && length > 1 {
		length--
	}

	shuffled := Shuffle(pool, rng)

	seq := make([]string, 0, max(length, len(shuffled)))
	for len(seq) < length {
		seq = append(seq, shuffled...)
	}
	return seq[:length], nil
}
