// Package signal abstracts the oracle the directional policy listens to.
// A source produces one scalar per invocation; the policy only ever compares
// it against the configured entry/exit thresholds.
package signal

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Source yields the next signal value. Implementations may block on I/O and
// must honor ctx cancellation.
type Source interface {
	Next(ctx context.Context) (float64, error)
}

// Gaussian draws from N(mean, stddev). This reproduces the reference
// strategy's stochastic oracle; values are unbounded, the policy's threshold
// band does the clamping.
type Gaussian struct {
	Mean   float64
	StdDev float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGaussian(mean, stddev float64, seed int64) *Gaussian {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Gaussian{Mean: mean, StdDev: stddev, rng: rand.New(rand.NewSource(seed))}
}

func (g *Gaussian) Next(_ context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.NormFloat64()*g.StdDev + g.Mean, nil
}

// Sequence replays a fixed series of values, then repeats the last one.
// Deterministic substitute for tests.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	idx    int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Next(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0, nil
	}
	v := s.values[s.idx]
	if s.idx < len(s.values)-1 {
		s.idx++
	}
	return v, nil
}

var (
	_ Source = (*Gaussian)(nil)
	_ Source = (*Sequence)(nil)
)
