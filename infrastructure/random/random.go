// Package random provides the randomness sources that drive candidate
// shuffles. Every source satisfies domain.RNG.
package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"sync"

	"github.com/ahrav/go-luckydraw/internal/domain"
)

var (
	_ domain.RNG = Crypto{}
	_ domain.RNG = (*Seeded)(nil)
)

// Crypto draws every index from crypto/rand. It is stateless and safe for
// concurrent use, and is the default source for live draws.
type Crypto struct{}

// IntN returns a uniform int in [0, n) using rejection sampling inside
// crypto/rand.Int, so there is no modulo bias.
func (Crypto) IntN(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("random: IntN called with n=%d", n))
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand.Reader does not fail on supported platforms.
		panic(fmt.Sprintf("random: crypto source failed: %v", err))
	}
	return int(v.Int64())
}

// Seeded is a reproducible PCG source for simulations and tests.
// It is safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a reproducible source. Equal seeds yield equal streams.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a uniform int in [0, n).
func (s *Seeded) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
