package counter

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// retiredState is stored into generation.state once the drain owns the
// generation. It is far enough from math.MinInt64 that the transient
// increments of bailing writers can not overflow it.
const retiredState = math.MinInt64 / 2

const (
	spinRounds = 10
	sleepStep  = 50 * time.Microsecond
)

// generation maps keys to entries for one period between two drains.
//
// state >= 0 is the number of writers inside the generation,
// state < 0 means the generation is retired.
type generation[K comparable] struct {
	id      uint64
	width   int
	state   atomic.Int64
	entries *xsync.MapOf[K, *entry]
}

func newGeneration[K comparable](id uint64, width int) *generation[K] {
	return &generation[K]{
		id:      id,
		width:   width,
		entries: xsync.NewMapOf[K, *entry](),
	}
}

// enter registers a writer, false if the generation is retiring
func (g *generation[K]) enter() bool {
	if g.state.Add(1) < 0 {
		g.state.Add(-1)
		return false
	}
	return true
}

func (g *generation[K]) exit() {
	g.state.Add(-1)
}

// retire waits until no writer is inside and seals the generation.
// It must be called after the generation has been replaced as the active one,
// otherwise writers keep entering and the wait does not end.
func (g *generation[K]) retire() (rounds int) {
	var b backoff
	for !g.state.CompareAndSwap(0, retiredState) {
		b.wait()
	}
	return b.rounds
}

func (g *generation[K]) retired() bool {
	return g.state.Load() < 0
}

// entry loads or creates the entry of key
func (g *generation[K]) entry(key K) *entry {
	if e, ok := g.entries.Load(key); ok {
		return e
	}
	e, _ := g.entries.LoadOrCompute(key, func() *entry {
		return newEntry(g.width)
	})
	return e
}

// backoff spins with runtime.Gosched for the first rounds, then sleeps
type backoff struct {
	rounds int
}

func (b *backoff) wait() {
	if b.rounds < spinRounds {
		for i := 0; i < 1<<b.rounds; i++ {
			runtime.Gosched()
		}
	} else {
		time.Sleep(sleepStep)
	}
	b.rounds++
}
