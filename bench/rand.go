package bench

import "math/rand/v2"

// Rand is the stimulus randomness of one run. A run is reproducible from
// its seed alone.
type Rand struct {
	seed uint64
	src  *rand.Rand
}

// NewRand creates a generator for seed.
func NewRand(seed uint64) *Rand {
	return &Rand{
		seed: seed,
		src:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the seed the generator was created with.
func (r *Rand) Seed() uint64 {
	return r.seed
}

// Uint32 returns a uniformly distributed word.
func (r *Rand) Uint32() uint32 {
	return r.src.Uint32()
}

// Uint64 returns a uniformly distributed double word.
func (r *Rand) Uint64() uint64 {
	return r.src.Uint64()
}

// Bool flips a fair coin.
func (r *Rand) Bool() bool {
	return r.src.Uint32()&1 == 1
}

// Intn returns a value in [0, n).
func (r *Rand) Intn(n int) int {
	return r.src.IntN(n)
}

// OneIn returns true with probability 1/n.
func (r *Rand) OneIn(n uint32) bool {
	return r.src.Uint32N(n) == 0
}

// Masked returns a random word with only the bits of mask kept.
func (r *Rand) Masked(mask uint32) uint32 {
	return r.src.Uint32() & mask
}
