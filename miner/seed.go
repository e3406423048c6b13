package miner

import (
	"math/rand"
	"sync"
	"time"

	"github.com/spacemeshos/blockminer/shared"
)

// SeedSource draws values for the seed subfield of a template.
// Seeds are plain pseudo-random numbers with no security meaning; two workers
// started in the same instant may draw the same seed.
type SeedSource interface {
	Next() uint32
}

type clockSeeds struct{}

// ClockSeeds returns a SeedSource that reseeds a math/rand generator from the
// wall clock on every draw.
func ClockSeeds() SeedSource {
	return clockSeeds{}
}

func (clockSeeds) Next() uint32 {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return uint32(rng.Intn(shared.CounterSpace))
}

type seedSequence struct {
	mu    sync.Mutex
	seeds []uint32
}

// SeedSequence returns the given seeds in order and then keeps repeating the
// last one. It makes a search reproducible.
func SeedSequence(seeds ...uint32) SeedSource {
	if len(seeds) == 0 {
		seeds = []uint32{0}
	}
	return &seedSequence{seeds: seeds}
}

func (s *seedSequence) Next() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seed := s.seeds[0]
	if len(s.seeds) > 1 {
		s.seeds = s.seeds[1:]
	}
	return seed % shared.CounterSpace
}
