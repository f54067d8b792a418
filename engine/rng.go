package engine

import "math/rand/v2"

// pcgStream selects the PCG sequence; only the seed varies between sessions.
const pcgStream = 0x5851f42d4c957f2d

// RNG is the session's uniform 32-bit source: a PCG stream with position
// tracking. Position counts draws, so a save can resume the exact sequence.
type RNG struct {
	seed int64
	src  *rand.PCG
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.NewPCG(uint64(seed), pcgStream),
	}
}

// Uint32 returns the high half of the next PCG output.
func (r *RNG) Uint32() uint32 {
	r.pos++
	return uint32(r.src.Uint64() >> 32)
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// RestoreRNG creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.src.Uint64()
	}
	rng.pos = position
	return rng
}
