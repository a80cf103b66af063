package payout

import (
	"math/rand/v2"
	"sync"
)

// RandomSource supplies uniform values in [0,1). It is the only
// nondeterministic input of every game.
type RandomSource interface {
	Next() float64
}

type globalSource struct{}

func (globalSource) Next() float64 { return rand.Float64() }

// Default is the process-wide source backed by math/rand/v2.
var Default RandomSource = globalSource{}

// Seeded is a reproducible source, safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) Next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Sequence replays fixed values in order and wraps around when exhausted.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

// intn draws an index in [0,n).
func intn(rng RandomSource, n int) int {
	i := int(rng.Next() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
