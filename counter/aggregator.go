package counter

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/d0ngw/counter/telemetry"
)

// Option configures an Aggregator
type Option func(*options)

type options struct {
	strategy Strategy
	slowWait time.Duration
}

// WithStrategy select the guard strategy,StrategyEpoch by default
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithSlowWait warn when a drain waits longer than d for writers to leave
// the retired generation,0 disables the warning
func WithSlowWait(d time.Duration) Option {
	return func(o *options) {
		o.slowWait = d
	}
}

// Aggregator accumulates the fields of every key in memory until drained.
// Add,Incr,Get and Len are safe for concurrent use; Drain must have a single caller.
type Aggregator[K comparable] struct {
	name     string
	schema   *Schema
	strategy Strategy
	slowWait time.Duration
	guard    guard[K]

	draining atomic.Bool
	// restarts counts epoch retries or optimistic rescues until the next drain
	restarts atomic.Int64

	label telemetry.Counter
}

// New create an aggregator of schema's fields
func New[K comparable](name string, schema *Schema, opts ...Option) *Aggregator[K] {
	if schema == nil {
		panic("counter: nil schema")
	}
	o := options{strategy: StrategyEpoch}
	for _, opt := range opts {
		opt(&o)
	}
	return &Aggregator[K]{
		name:     name,
		schema:   schema,
		strategy: o.strategy,
		slowWait: o.slowWait,
		guard:    newGuard[K](o.strategy, schema.Len()),
		label:    telemetry.Counter{Name: name},
	}
}

// Name the aggregator name
func (p *Aggregator[K]) Name() string {
	return p.name
}

// Schema the fields of the aggregator
func (p *Aggregator[K]) Schema() *Schema {
	return p.schema
}

// Strategy the guard strategy
func (p *Aggregator[K]) Strategy() Strategy {
	return p.strategy
}

// Add adds deltas to the fields of key in schema order,missing deltas are 0.
// More deltas than schema fields is a programming error and panics.
func (p *Aggregator[K]) Add(key K, deltas ...int64) {
	if len(deltas) > p.schema.Len() {
		panic(fmt.Sprintf("counter %s: %d deltas for %d fields", p.name, len(deltas), p.schema.Len()))
	}
	if n := p.guard.add(key, deltas); n > 0 {
		p.restarts.Add(int64(n))
	}
}

// Incr increase the fields of key with fieldAndDelta,an unknown field is an
// error and nothing is applied
func (p *Aggregator[K]) Incr(key K, fieldAndDelta Fields) error {
	deltas, err := p.schema.FromFields(fieldAndDelta)
	if err != nil {
		return fmt.Errorf("counter %s: %w", p.name, err)
	}
	p.Add(key, deltas...)
	return nil
}

// Get the not yet drained fields of key,false when key has nothing pending
func (p *Aggregator[K]) Get(key K) (Fields, bool) {
	values, ok := p.guard.get(key)
	if !ok {
		return nil, false
	}
	return p.schema.ToFields(values), true
}

// Len the number of keys holding memory in the active generation
func (p *Aggregator[K]) Len() int {
	return p.guard.size()
}
