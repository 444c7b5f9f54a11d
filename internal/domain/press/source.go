package press

import (
	"math/rand/v2"
)

// Source is the pseudorandom source behind every choice point: the seed start
// index and the match picked at each advance. IntN must return a value in [0, n)
// and may panic when n <= 0, like math/rand/v2.
//
// *rand.Rand from math/rand/v2 satisfies Source.
type Source interface {
	IntN(n int) int
}

// NewSource returns a deterministic Source: equal seeds give equal generations
// over the same corpus.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SystemSource returns a Source seeded from the runtime's entropy.
func SystemSource() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
