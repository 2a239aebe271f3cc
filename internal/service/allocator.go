package service

import (
	"math/rand/v2"

	"github.com/CouSixz/Ciborg/internal/utils"
)

// RandomSource picks an index in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// NewRandomSource returns a PCG source. A non-empty seed makes runs
// reproducible; an empty one draws a fresh seed.
func NewRandomSource(seed string) RandomSource {
	if seed == "" {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	h := utils.HashStringToUint64(seed)
	return rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15))
}

// AssignmentCounter holds how many orders each agent received in one run.
type AssignmentCounter map[string]int

func (c AssignmentCounter) Clone() AssignmentCounter {
	out := make(AssignmentCounter, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Allocator hands orders to the least loaded candidate, breaking ties at
// random. One Allocator serves exactly one run.
type Allocator struct {
	counts AssignmentCounter
	rng    RandomSource
}

func NewAllocator(rng RandomSource) *Allocator {
	if rng == nil {
		rng = NewRandomSource("")
	}
	return &Allocator{counts: AssignmentCounter{}, rng: rng}
}

// Allocate selects one of candidates and records the assignment. Callers must
// not pass an empty list; it returns "" if they do.
func (a *Allocator) Allocate(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, id := range candidates {
		if _, ok := a.counts[id]; !ok {
			a.counts[id] = 0
		}
	}

	minCount := a.counts[candidates[0]]
	for _, id := range candidates[1:] {
		if c := a.counts[id]; c < minCount {
			minCount = c
		}
	}

	ties := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if a.counts[id] == minCount {
			ties = append(ties, id)
		}
	}

	picked := ties[a.rng.IntN(len(ties))]
	a.counts[picked]++
	return picked
}

func (a *Allocator) Count(agentID string) int {
	return a.counts[agentID]
}

// Counts returns a snapshot of the run counter.
func (a *Allocator) Counts() AssignmentCounter {
	return a.counts.Clone()
}
