package counter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema(t *testing.T) {
	s, err := NewSchema("like", " comment ")
	assert.Nil(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"like", "comment"}, s.Names())

	i, ok := s.Index("comment")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = s.Index("share")
	assert.False(t, ok)

	names := s.Names()
	names[0] = "changed"
	assert.Equal(t, "like", s.Names()[0])

	_, err = NewSchema()
	assert.NotNil(t, err)
	_, err = NewSchema("like", "")
	assert.NotNil(t, err)
	_, err = NewSchema("like", "like")
	assert.NotNil(t, err)

	assert.Panics(t, func() { MustSchema("a", "a") })
}

func TestSchemaFields(t *testing.T) {
	s := MustSchema("like", "comment")

	assert.Equal(t, Fields{"like": 1, "comment": 0}, s.ToFields([]int64{1}))
	assert.Equal(t, Fields{"like": 1, "comment": 2}, s.ToFields([]int64{1, 2}))

	values, err := s.FromFields(Fields{"comment": 3})
	assert.Nil(t, err)
	assert.Equal(t, []int64{0, 3}, values)

	_, err = s.FromFields(Fields{"like": 1, "share": 1})
	assert.NotNil(t, err)
}

func TestFields(t *testing.T) {
	f := Fields{"like": 1}
	f.Add(Fields{"like": 2, "comment": 3})
	assert.Equal(t, Fields{"like": 3, "comment": 3}, f)
	assert.False(t, f.IsZero())
	assert.True(t, Fields{"like": 0}.IsZero())
	assert.True(t, Fields{}.IsZero())
}

func TestGenerationFromContext(t *testing.T) {
	_, ok := GenerationFromContext(context.Background())
	assert.False(t, ok)

	id, ok := GenerationFromContext(withGeneration(context.Background(), 9))
	assert.True(t, ok)
	assert.Equal(t, uint64(9), id)
}

func TestStrategy(t *testing.T) {
	for _, s := range []Strategy{StrategyEpoch, StrategyOptimistic} {
		parsed, err := ParseStrategy(s.String())
		assert.Nil(t, err)
		assert.Equal(t, s, parsed)
	}
	s, err := ParseStrategy(" Optimistic")
	assert.Nil(t, err)
	assert.Equal(t, StrategyOptimistic, s)

	_, err = ParseStrategy("lock")
	assert.NotNil(t, err)
	assert.Equal(t, "Strategy(9)", Strategy(9).String())
}

func TestEntry(t *testing.T) {
	e := newEntry(3)
	e.add([]int64{1, 0, -2})
	e.add([]int64{1})
	assert.Equal(t, []int64{2, 0, -2}, e.load())
	assert.Equal(t, []int64{2, 0, -2}, e.swap())
	assert.True(t, isZero(e.load()))
}
