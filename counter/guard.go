package counter

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Strategy selects how writers and the drain agree on a generation
type Strategy int

const (
	// StrategyEpoch retires the active generation behind an atomic writer count,
	// writers are wait-free unless they hit a retiring generation
	StrategyEpoch Strategy = iota
	// StrategyOptimistic harvests the live map in place,a writer that raced the
	// harvest of its entry re-adds what it wrote
	StrategyOptimistic
)

var strategyNames = map[Strategy]string{
	StrategyEpoch:      "epoch",
	StrategyOptimistic: "optimistic",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parse the strategy name,case insensitive
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// batch is a sealed generation owned by the drain
type batch[K comparable] struct {
	generation uint64
	// wait the time spent waiting for writers to leave
	wait time.Duration
	// each calls fn exactly once per key of the generation
	each func(fn func(key K, values []int64))
}

// guard is implemented by the strategies
type guard[K comparable] interface {
	// add applies deltas to key and returns how many times it had to start over
	add(key K, deltas []int64) int
	get(key K) ([]int64, bool)
	size() int
	// seal hands the current values to the single drain caller
	seal() batch[K]
}

func newGuard[K comparable](s Strategy, width int) guard[K] {
	switch s {
	case StrategyOptimistic:
		return newOptimisticGuard[K](width)
	default:
		return newEpochGuard[K](width)
	}
}

type epochGuard[K comparable] struct {
	current atomic.Pointer[generation[K]]
	width   int
}

func newEpochGuard[K comparable](width int) *epochGuard[K] {
	p := &epochGuard[K]{width: width}
	p.current.Store(newGeneration[K](1, width))
	return p
}

func (p *epochGuard[K]) add(key K, deltas []int64) (retries int) {
	for {
		g := p.current.Load()
		if g.enter() {
			g.entry(key).add(deltas)
			g.exit()
			return
		}
		// g is retiring,the drain has already published its successor
		retries++
	}
}

func (p *epochGuard[K]) get(key K) ([]int64, bool) {
	if e, ok := p.current.Load().entries.Load(key); ok {
		return e.load(), true
	}
	return nil, false
}

func (p *epochGuard[K]) size() int {
	return p.current.Load().entries.Size()
}

func (p *epochGuard[K]) seal() batch[K] {
	old := p.current.Load()
	p.current.Store(newGeneration[K](old.id+1, p.width))

	start := time.Now()
	old.retire()
	wait := time.Since(start)

	return batch[K]{
		generation: old.id,
		wait:       wait,
		each: func(fn func(key K, values []int64)) {
			old.entries.Range(func(key K, e *entry) bool {
				fn(key, e.load())
				return true
			})
		},
	}
}

type optimisticGuard[K comparable] struct {
	live *generation[K]
	gen  atomic.Uint64
}

func newOptimisticGuard[K comparable](width int) *optimisticGuard[K] {
	p := &optimisticGuard[K]{live: newGeneration[K](0, width)}
	p.gen.Store(1)
	return p
}

func (p *optimisticGuard[K]) add(key K, deltas []int64) (rescues int) {
	for {
		e := p.live.entry(key)
		e.add(deltas)
		if !e.discarded.Load() {
			return
		}
		// e was harvested,take back whatever is left in it
		deltas = e.swap()
		if isZero(deltas) {
			return
		}
		rescues++
	}
}

func (p *optimisticGuard[K]) get(key K) ([]int64, bool) {
	if e, ok := p.live.entries.Load(key); ok {
		return e.load(), true
	}
	return nil, false
}

func (p *optimisticGuard[K]) size() int {
	return p.live.entries.Size()
}

func (p *optimisticGuard[K]) seal() batch[K] {
	id := p.gen.Add(1) - 1
	return batch[K]{
		generation: id,
		each: func(fn func(key K, values []int64)) {
			// a key re-created while ranging may be visited again under its new entry
			harvested := make(map[K][]int64)
			order := make([]K, 0, p.live.entries.Size())
			p.live.entries.Range(func(key K, e *entry) bool {
				if e.discarded.Load() {
					return true
				}
				// only the drain deletes,so key still maps to e here
				p.live.entries.Delete(key)
				e.discarded.Store(true)
				values := e.swap()
				if prev, ok := harvested[key]; ok {
					for i, v := range values {
						prev[i] += v
					}
					return true
				}
				harvested[key] = values
				order = append(order, key)
				return true
			})
			for _, key := range order {
				fn(key, harvested[key])
			}
		},
	}
}
