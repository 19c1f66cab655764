// Package counter aggregates per-key counters in memory under heavy concurrent
// increments, and periodically drains the accumulated values to a Sink.
//
// The active values live in a generation. Writers update the generation that is
// active when they commit; the single drain caller retires it, waits until no
// writer still holds it, hands every key to the Sink and drops it, so a key that
// stops being updated does not keep memory after its last drain.
package counter

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Fields define the counter's field and value
type Fields map[string]int64

// Add adds every field of other to p
func (p Fields) Add(other Fields) {
	for k, v := range other {
		p[k] += v
	}
}

// IsZero reports whether all fields are zero
func (p Fields) IsZero() bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

// Sink receives the drained values,Store is called once per key per drain
// from the drain goroutine. An error is logged and counted,the values of
// that key for the drain are not retried.
type Sink[K comparable] interface {
	Store(ctx context.Context, key K, fields Fields) error
}

// SinkFunc adapts a function to Sink
type SinkFunc[K comparable] func(ctx context.Context, key K, fields Fields) error

// Store implements Sink.Store
func (f SinkFunc[K]) Store(ctx context.Context, key K, fields Fields) error {
	return f(ctx, key, fields)
}

// ErrConcurrentDrain is the panic value when Drain is entered while another
// Drain of the same Aggregator is running
var ErrConcurrentDrain = errors.New("counter: concurrent drain")

// Schema the ordered field names of a counter
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema create schema with the field names,names must be unique and not empty
func NewSchema(names ...string) (*Schema, error) {
	if len(names) == 0 {
		return nil, errors.New("schema needs at least one field")
	}
	s := &Schema{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.New("empty field name")
		}
		if _, ok := s.index[name]; ok {
			return nil, fmt.Errorf("duplicate field %s", name)
		}
		s.index[name] = len(s.names)
		s.names = append(s.names, name)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error
func MustSchema(names ...string) *Schema {
	s, err := NewSchema(names...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len the number of fields
func (p *Schema) Len() int {
	return len(p.names)
}

// Names the field names in order
func (p *Schema) Names() []string {
	return append([]string(nil), p.names...)
}

// Index the position of field name
func (p *Schema) Index(name string) (int, bool) {
	i, ok := p.index[name]
	return i, ok
}

// ToFields convert positional values to Fields,every schema field is present
func (p *Schema) ToFields(values []int64) Fields {
	fields := make(Fields, len(p.names))
	for i, name := range p.names {
		var v int64
		if i < len(values) {
			v = values[i]
		}
		fields[name] = v
	}
	return fields
}

// FromFields convert Fields to positional values,unknown field is an error
func (p *Schema) FromFields(fields Fields) ([]int64, error) {
	values := make([]int64, len(p.names))
	for name, v := range fields {
		i, ok := p.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown field %s", name)
		}
		values[i] = v
	}
	return values, nil
}

type generationCtxKey struct{}

func withGeneration(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, generationCtxKey{}, id)
}

// GenerationFromContext the id of the generation being drained,
// available in the context passed to Sink.Store
func GenerationFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(generationCtxKey{}).(uint64)
	return id, ok
}
