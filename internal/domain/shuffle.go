package domain

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// IntN returns a non-negative random int in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// Shuffle returns a uniformly random permutation of items. The input slice
// is never modified.
//
// It uses the inside-out variant of Fisher-Yates: element i is placed at a
// random position j in [0, i] of the output and whatever was at j moves to
// i. Each of the n! permutations is produced by exactly one sequence of
// IntN results, so an unbiased RNG yields an unbiased permutation.
func Shuffle[T any](items []T, rng RNG) []T {
	out := make([]T, len(items))
	for i, item := range items {
		j := rng.IntN(i + 1)
		if j != i {
			out[i] = out[j]
		}
		out[j] = item
	}
	return out
}
