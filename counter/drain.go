package counter

import (
	"context"
	"time"

	c "github.com/d0ngw/counter/common"
	"github.com/d0ngw/counter/telemetry"
)

// DrainStats describes one drain
type DrainStats struct {
	// Generation the id of the drained generation
	Generation uint64
	// Keys the number of keys handed to the sink
	Keys int
	// Failed the number of keys the sink failed to store
	Failed int
	// Wait the time spent waiting for writers to leave the generation
	Wait time.Duration
	// Elapsed the whole drain duration
	Elapsed time.Duration
}

// Drain hands the accumulated fields of every key to sink and resets them.
//
// Drain must not be called concurrently with itself,doing so panics with
// ErrConcurrentDrain. When ctx is already done Drain returns its error and
// leaves every value in place; once started it runs to completion and sink
// gets a context that is never canceled. Sink errors are logged and counted
// in DrainStats.Failed,the values of the failed key are dropped.
func (p *Aggregator[K]) Drain(ctx context.Context, sink Sink[K]) (stats DrainStats, err error) {
	if !p.draining.CompareAndSwap(false, true) {
		panic(ErrConcurrentDrain)
	}
	defer p.draining.Store(false)

	if err = ctx.Err(); err != nil {
		return
	}

	start := time.Now()
	b := p.guard.seal()
	stats.Generation = b.generation
	stats.Wait = b.wait
	if p.slowWait > 0 && b.wait > p.slowWait {
		c.Warnf("counter %s waited %s for writers of generation %d", p.name, b.wait, b.generation)
	}

	sinkCtx := withGeneration(context.WithoutCancel(ctx), b.generation)
	b.each(func(key K, values []int64) {
		stats.Keys++
		if serr := sink.Store(sinkCtx, key, p.schema.ToFields(values)); serr != nil {
			stats.Failed++
			c.Errorf("counter %s store %v of generation %d fail,err:%v", p.name, key, b.generation, serr)
		}
	})
	stats.Elapsed = time.Since(start)

	p.report(stats)
	if c.DebugEnabled() {
		c.Debugf("counter %s drained generation %d,keys:%d,failed:%d,wait:%s,elapsed:%s",
			p.name, stats.Generation, stats.Keys, stats.Failed, stats.Wait, stats.Elapsed)
	}
	return
}

func (p *Aggregator[K]) report(stats DrainStats) {
	m := &telemetry.Metrics
	if n := p.restarts.Swap(0); n > 0 {
		if p.strategy == StrategyOptimistic {
			m.Aggregator.Rescues(p.label).Add(float64(n))
		} else {
			m.Aggregator.Retries(p.label).Add(float64(n))
		}
	}
	m.Aggregator.Keys(p.label).Set(float64(p.guard.size()))
	m.Drain.Total(p.label).Inc()
	m.Drain.Keys(p.label).Add(float64(stats.Keys))
	if stats.Failed > 0 {
		m.Drain.Failed(p.label).Add(float64(stats.Failed))
	}
	m.Drain.Duration(p.label).Duration(stats.Elapsed)
	if p.strategy == StrategyEpoch {
		m.Drain.Wait(p.label).Duration(stats.Wait)
	}
}
