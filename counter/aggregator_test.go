package counter

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

var strategies = []Strategy{StrategyEpoch, StrategyOptimistic}

var likeComment = MustSchema("like", "comment")

// sumSink sums what it receives and records the calls per key of each drain
type sumSink struct {
	sync.Mutex
	totals map[string]Fields
	calls  map[string]int
	// dup is set when a drain stores a key twice
	dup   bool
	drain map[string]bool
}

func newSumSink() *sumSink {
	return &sumSink{totals: map[string]Fields{}, calls: map[string]int{}}
}

func (p *sumSink) begin() {
	p.Lock()
	p.drain = map[string]bool{}
	p.Unlock()
}

func (p *sumSink) Store(ctx context.Context, key string, fields Fields) error {
	p.Lock()
	defer p.Unlock()
	if p.drain != nil {
		if p.drain[key] {
			p.dup = true
		}
		p.drain[key] = true
	}
	if p.totals[key] == nil {
		p.totals[key] = Fields{}
	}
	p.totals[key].Add(fields)
	p.calls[key]++
	return nil
}

func (p *sumSink) total(key string) Fields {
	p.Lock()
	defer p.Unlock()
	return p.totals[key]
}

func drainOnce(t *testing.T, a *Aggregator[string], sink *sumSink) DrainStats {
	sink.begin()
	stats, err := a.Drain(context.Background(), sink)
	assert.Nil(t, err)
	return stats
}

func TestAddAndGet(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := New[string]("add_get_"+s.String(), likeComment, WithStrategy(s))
			assert.Equal(t, s, a.Strategy())
			assert.Equal(t, likeComment, a.Schema())

			_, ok := a.Get("a")
			assert.False(t, ok)

			a.Add("a", 1)
			a.Add("a", 1, 2)
			assert.Nil(t, a.Incr("a", Fields{"comment": 3}))
			fields, ok := a.Get("a")
			assert.True(t, ok)
			assert.Equal(t, Fields{"like": 2, "comment": 5}, fields)
			assert.Equal(t, 1, a.Len())

			assert.NotNil(t, a.Incr("a", Fields{"like": 1, "share": 1}))
			fields, _ = a.Get("a")
			assert.Equal(t, Fields{"like": 2, "comment": 5}, fields)

			assert.Panics(t, func() { a.Add("a", 1, 2, 3) })
		})
	}
}

func TestSingleKeyDrain(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := New[string]("single_"+s.String(), likeComment, WithStrategy(s))
			var calls []Fields
			sink := SinkFunc[string](func(ctx context.Context, key string, fields Fields) error {
				assert.Equal(t, "x", key)
				calls = append(calls, fields)
				return nil
			})

			a.Add("x", 1)
			stats, err := a.Drain(context.Background(), sink)
			assert.Nil(t, err)
			assert.Equal(t, 1, stats.Keys)
			assert.Equal(t, []Fields{{"like": 1, "comment": 0}}, calls)
			assert.Equal(t, 0, a.Len())

			stats, err = a.Drain(context.Background(), sink)
			assert.Nil(t, err)
			assert.Equal(t, 0, stats.Keys)
			assert.Len(t, calls, 1)
		})
	}
}

func TestConcurrentScenario(t *testing.T) {
	const loops = 1000000
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := New[string]("scenario_"+s.String(), likeComment, WithStrategy(s))
			sink := newSumSink()

			done := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						drainOnce(t, a, sink)
					case <-done:
						return
					}
				}
			}()

			var g errgroup.Group
			for i := 0; i < 2; i++ {
				g.Go(func() error {
					for j := 0; j < loops; j++ {
						a.Add("k", 2, 4)
					}
					return nil
				})
			}
			assert.Nil(t, g.Wait())
			close(done)
			wg.Wait()
			drainOnce(t, a, sink)

			assert.Equal(t, Fields{"like": 4000000, "comment": 8000000}, sink.total("k"))
			assert.False(t, sink.dup)
			assert.Equal(t, 0, a.Len())
		})
	}
}

func TestNoLostUpdates(t *testing.T) {
	const (
		writers = 8
		keys    = 64
		loops   = 20000
	)
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := New[string]("lost_"+s.String(), likeComment, WithStrategy(s))
			sink := newSumSink()

			var g errgroup.Group
			stop := make(chan struct{})
			drained := make(chan struct{})
			go func() {
				defer close(drained)
				for {
					select {
					case <-stop:
						return
					default:
						drainOnce(t, a, sink)
						time.Sleep(time.Millisecond)
					}
				}
			}()
			for w := 0; w < writers; w++ {
				w := w
				g.Go(func() error {
					for i := 0; i < loops; i++ {
						key := fmt.Sprintf("k%d", (i+w)%keys)
						if i%2 == 0 {
							a.Add(key, 1)
						} else if err := a.Incr(key, Fields{"like": 1, "comment": -1}); err != nil {
							return err
						}
					}
					return nil
				})
			}
			assert.Nil(t, g.Wait())
			close(stop)
			<-drained

			// pending values plus everything delivered must add up
			var like, comment int64
			for k := 0; k < keys; k++ {
				key := fmt.Sprintf("k%d", k)
				if f, ok := a.Get(key); ok {
					like += f["like"]
					comment += f["comment"]
				}
				f := sink.total(key)
				like += f["like"]
				comment += f["comment"]
			}
			assert.Equal(t, int64(writers*loops), like)
			assert.Equal(t, int64(-writers*loops/2), comment)
			assert.False(t, sink.dup)
		})
	}
}

func TestMemoryReclamation(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := New[int]("reclaim_"+s.String(), likeComment, WithStrategy(s))
			sink := SinkFunc[int](func(ctx context.Context, key int, fields Fields) error { return nil })
			for i := 0; i < 10000; i++ {
				a.Add(i, 1)
			}
			assert.Equal(t, 10000, a.Len())

			stats, err := a.Drain(context.Background(), sink)
			assert.Nil(t, err)
			assert.Equal(t, 10000, stats.Keys)
			assert.Equal(t, 0, a.Len())

			a.Add(1, 1)
			a.Add(2, 1)
			assert.Equal(t, 2, a.Len())
			stats, err = a.Drain(context.Background(), sink)
			assert.Nil(t, err)
			assert.Equal(t, 2, stats.Keys)
			assert.Equal(t, 0, a.Len())
		})
	}
}

func TestOptimisticRescue(t *testing.T) {
	g := newOptimisticGuard[string](2)
	e := g.live.entry("k")
	e.add([]int64{1, 1})

	// harvest e the way the drain does
	g.live.entries.Delete("k")
	e.discarded.Store(true)
	assert.Equal(t, []int64{1, 1}, e.swap())

	// a late writer that still holds e moves its delta to a fresh entry
	e.add([]int64{2, 3})
	assert.True(t, e.discarded.Load())
	rest := e.swap()
	assert.Equal(t, 0, g.add("k", rest))

	values, ok := g.get("k")
	assert.True(t, ok)
	assert.Equal(t, []int64{2, 3}, values)
}
