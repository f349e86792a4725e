package exhibition

import (
	"math/rand/v2"
	"slices"
)

// maxHistory caps how many recent photos are excluded from selection.
const maxHistory = 60

// HistorySize returns how many recent picks are excluded from a catalog of n photos.
func HistorySize(n int) int {
	return min(maxHistory, n/2)
}

// Picker chooses random indexes in [0, n) without repeating any of the most recent picks.
type Picker struct {
	n       int
	size    int
	history []int
	rnd     *rand.Rand
}

// NewPicker returns a picker over n photos. A nil rnd uses a randomly seeded source.
func NewPicker(n int, rnd *rand.Rand) *Picker {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	size := HistorySize(n)
	return &Picker{n: n, size: size, history: make([]int, 0, size), rnd: rnd}
}

// Next returns the next index. n must be positive.
func (p *Picker) Next() int {
	if p.size == 0 {
		return p.rnd.IntN(p.n)
	}

	if len(p.history) >= p.size {
		p.history = p.history[1:]
	}

	// At most half the indexes are excluded, so this takes two draws on average.
	i := p.rnd.IntN(p.n)
	for slices.Contains(p.history, i) {
		i = p.rnd.IntN(p.n)
	}
	p.history = append(p.history, i)
	return i
}

// History returns the recent picks, oldest first.
func (p *Picker) History() []int {
	return slices.Clone(p.history)
}
