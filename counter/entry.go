package counter

import (
	"sync/atomic"
)

// entry holds the accumulated values of one key in one generation
type entry struct {
	vals []atomic.Int64
	// discarded is written only by the drain goroutine
	discarded atomic.Bool
}

func newEntry(width int) *entry {
	return &entry{vals: make([]atomic.Int64, width)}
}

func (p *entry) add(deltas []int64) {
	for i, d := range deltas {
		if d != 0 {
			p.vals[i].Add(d)
		}
	}
}

// swap reads and zeroes every field
func (p *entry) swap() []int64 {
	values := make([]int64, len(p.vals))
	for i := range p.vals {
		values[i] = p.vals[i].Swap(0)
	}
	return values
}

func (p *entry) load() []int64 {
	values := make([]int64, len(p.vals))
	for i := range p.vals {
		values[i] = p.vals[i].Load()
	}
	return values
}

func isZero(values []int64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}
