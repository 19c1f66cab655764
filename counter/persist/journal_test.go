package persist

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/d0ngw/counter/counter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalSink(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewJournalSink(&buf)
	require.Nil(t, err)

	a := counter.New[string]("journal", counter.MustSchema("like", "comment"))
	a.Add("a", 1, 2)
	a.Add("b", 3)
	first, err := a.Drain(context.Background(), sink)
	require.Nil(t, err)
	a.Add("a", 1, 1)
	second, err := a.Drain(context.Background(), sink)
	require.Nil(t, err)
	assert.Nil(t, sink.Close())

	data := buf.Bytes()
	var records []*Record
	assert.Nil(t, ReadJournal(bytes.NewReader(data), func(record *Record) error {
		records = append(records, record)
		return nil
	}))
	assert.Len(t, records, 3)
	gens := map[string][]uint64{}
	for _, r := range records {
		gens[r.ID] = append(gens[r.ID], r.Gen)
		assert.True(t, r.TS > 0)
	}
	assert.Equal(t, []uint64{first.Generation, second.Generation}, gens["a"])
	assert.Equal(t, []uint64{first.Generation}, gens["b"])

	mem := memSink{}
	keys, err := Replay(context.Background(), bytes.NewReader(data), mem)
	assert.Nil(t, err)
	assert.Equal(t, 2, keys)
	assert.Equal(t, counter.Fields{"like": 2, "comment": 3}, mem["a"])
	assert.Equal(t, counter.Fields{"like": 3, "comment": 0}, mem["b"])

	stop := errors.New("stop")
	assert.Equal(t, stop, ReadJournal(bytes.NewReader(data), func(record *Record) error { return stop }))
	assert.Nil(t, ReadJournal(bytes.NewReader(nil), func(record *Record) error { return nil }))
}

func TestFileJournalSink(t *testing.T) {
	_, err := NewFileJournalSink(&JournalConfig{})
	assert.NotNil(t, err)
	_, err = NewJournalSink(nil)
	assert.NotNil(t, err)

	name := filepath.Join(t.TempDir(), "counter.journal")
	sink, err := NewFileJournalSink(&JournalConfig{FileName: name, MaxSizeMB: 1})
	require.Nil(t, err)
	assert.Nil(t, sink.Store(context.Background(), "a", counter.Fields{"like": 1}))
	assert.Nil(t, sink.Close())

	f, err := os.Open(name)
	require.Nil(t, err)
	defer f.Close()
	var ids []string
	assert.Nil(t, ReadJournal(f, func(record *Record) error {
		ids = append(ids, record.ID)
		assert.Equal(t, uint64(0), record.Gen)
		return nil
	}))
	assert.Equal(t, []string{"a"}, ids)
}
