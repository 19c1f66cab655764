package counter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDrainWaitsForWriters(t *testing.T) {
	a := New[string]("quiesce", likeComment)
	a.Add("k", 1)

	// hold the active generation like an increment in flight
	g := a.guard.(*epochGuard[string]).current.Load()
	assert.True(t, g.enter())

	var stored atomic.Int64
	done := make(chan DrainStats)
	go func() {
		stats, err := a.Drain(context.Background(), SinkFunc[string](func(ctx context.Context, key string, fields Fields) error {
			stored.Add(fields["like"])
			return nil
		}))
		assert.Nil(t, err)
		done <- stats
	}()

	select {
	case <-done:
		t.Fatal("drain returned while a writer was inside the generation")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, int64(0), stored.Load())

	// new writers go to the successor
	a.Add("k", 10)
	assert.False(t, g.enter())

	g.entry("k").add([]int64{1})
	g.exit()

	stats := <-done
	assert.Equal(t, 1, stats.Keys)
	assert.Equal(t, int64(2), stored.Load())
	assert.True(t, g.retired())
	assert.True(t, stats.Wait > 0)

	fields, ok := a.Get("k")
	assert.True(t, ok)
	assert.Equal(t, int64(10), fields["like"])
}

func TestEpochRetry(t *testing.T) {
	p := newEpochGuard[string](1)
	old := p.current.Load()
	p.current.Store(newGeneration[string](old.id+1, 1))
	old.retire()

	// a writer that loaded old before the swap
	assert.False(t, old.enter())
	assert.True(t, old.state.Load() < 0)
	assert.Equal(t, 0, p.add("k", []int64{1}))
	values, ok := p.get("k")
	assert.True(t, ok)
	assert.Equal(t, []int64{1}, values)
}

func TestConcurrentDrainPanics(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := New[string]("concurrent_"+s.String(), likeComment, WithStrategy(s))
			a.Add("k", 1)

			entered := make(chan struct{})
			release := make(chan struct{})
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				_, _ = a.Drain(context.Background(), SinkFunc[string](func(ctx context.Context, key string, fields Fields) error {
					close(entered)
					<-release
					return nil
				}))
			}()
			<-entered
			assert.PanicsWithValue(t, ErrConcurrentDrain, func() {
				_, _ = a.Drain(context.Background(), SinkFunc[string](func(ctx context.Context, key string, fields Fields) error { return nil }))
			})
			close(release)
			<-finished

			_, err := a.Drain(context.Background(), SinkFunc[string](func(ctx context.Context, key string, fields Fields) error { return nil }))
			assert.Nil(t, err)
		})
	}
}

func TestDrainCanceledBeforeStart(t *testing.T) {
	a := New[string]("canceled", likeComment)
	a.Add("k", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := a.Drain(ctx, SinkFunc[string](func(ctx context.Context, key string, fields Fields) error {
		called = true
		return nil
	}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	fields, ok := a.Get("k")
	assert.True(t, ok)
	assert.Equal(t, int64(1), fields["like"])
}

func TestDrainSinkContext(t *testing.T) {
	a := New[string]("sink_ctx", likeComment)
	ctx, cancel := context.WithCancel(context.Background())
	var gens []uint64
	sink := SinkFunc[string](func(sctx context.Context, key string, fields Fields) error {
		// the drain already started,canceling the caller does not reach the sink
		cancel()
		assert.Nil(t, sctx.Err())
		id, ok := GenerationFromContext(sctx)
		assert.True(t, ok)
		gens = append(gens, id)
		return nil
	})

	a.Add("k", 1)
	stats, err := a.Drain(ctx, sink)
	assert.Nil(t, err)
	assert.Equal(t, []uint64{stats.Generation}, gens)

	a.Add("k", 1)
	stats2, err := a.Drain(context.Background(), sink)
	assert.Nil(t, err)
	assert.True(t, stats2.Generation > stats.Generation)
}

func TestDrainSinkErrors(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := New[string]("sink_err_"+s.String(), likeComment, WithStrategy(s), WithSlowWait(time.Nanosecond))
			a.Add("bad", 1)
			a.Add("good", 1)

			var good int
			stats, err := a.Drain(context.Background(), SinkFunc[string](func(ctx context.Context, key string, fields Fields) error {
				if key == "bad" {
					return errors.New("store fail")
				}
				good++
				return nil
			}))
			assert.Nil(t, err)
			assert.Equal(t, 2, stats.Keys)
			assert.Equal(t, 1, stats.Failed)
			assert.Equal(t, 1, good)

			// failed values are not retried
			stats, err = a.Drain(context.Background(), SinkFunc[string](func(ctx context.Context, key string, fields Fields) error {
				t.Errorf("unexpected store of %s", key)
				return nil
			}))
			assert.Nil(t, err)
			assert.Equal(t, 0, stats.Keys)
		})
	}
}
