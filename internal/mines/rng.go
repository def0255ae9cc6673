package mines

import (
	"math/rand/v2"
)

// golden ratio increment, keeps the second PCG word distinct from the first
const seedStream uint64 = 0x9e3779b97f4a7c15

// Rand is the source of randomness consumed by the generator.
type Rand interface {
	// Next returns a float in [0, 1).
	Next() float64
}

// RNG is a seeded PCG generator. Identical seeds produce identical sequences.
type RNG struct {
	r *rand.Rand
}

func NewRNG(seed uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(seed, seed^seedStream))}
}

// RNG implements [Rand]
func (g *RNG) Next() float64 {
	return g.r.Float64()
}

// intN picks an int in [0, n) from r.
func intN(r Rand, n int) int {
	i := int(r.Next() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
