package persist

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/d0ngw/counter/cache"
	c "github.com/d0ngw/counter/common"
	"github.com/d0ngw/counter/counter"
	perrors "github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Record is one drained key in the journal
type Record struct {
	ID     string         `codec:"id"`
	Fields counter.Fields `codec:"f"`
	Gen    uint64         `codec:"g"`
	TS     int64          `codec:"ts"` // unix milliseconds
}

// JournalConfig the journal file config
type JournalConfig struct {
	FileName   string
	MaxSizeMB  int
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// JournalSink appends every drained key as a msgpack Record
type JournalSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJournalSink create JournalSink writing to w
func NewJournalSink(w io.Writer) (*JournalSink, error) {
	if c.HasNil(w) {
		return nil, errors.New("writer must not be nil")
	}
	return &JournalSink{w: w}, nil
}

// NewFileJournalSink create JournalSink writing to a size rotated file
func NewFileJournalSink(conf *JournalConfig) (*JournalSink, error) {
	if conf == nil || conf.FileName == "" {
		return nil, errors.New("journal needs file name")
	}
	return NewJournalSink(&lumberjack.Logger{
		Filename:   conf.FileName,
		MaxSize:    conf.MaxSizeMB,
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAge,
		Compress:   conf.Compress,
		LocalTime:  true,
	})
}

// Store implements counter.Sink
func (p *JournalSink) Store(ctx context.Context, key string, fields counter.Fields) error {
	gen, _ := counter.GenerationFromContext(ctx)
	data, err := cache.Marshal(&Record{ID: key, Fields: fields, Gen: gen, TS: time.Now().UnixMilli()})
	if err != nil {
		return perrors.Wrapf(err, "encode %s", key)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	// one write per record,so a rotation never splits it
	if _, err = p.w.Write(data); err != nil {
		return perrors.Wrapf(err, "write %s", key)
	}
	return nil
}

// Close close the writer when it is an io.Closer
func (p *JournalSink) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if closer, ok := p.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ReadJournal decode the records of r in order and calls fn on each,
// stops at the first error of fn
func ReadJournal(r io.Reader, fn func(record *Record) error) error {
	dec := cache.NewDecoder(r)
	for {
		record := &Record{}
		err := dec.Decode(record)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return perrors.Wrap(err, "decode journal")
		}
		if err = fn(record); err != nil {
			return err
		}
	}
}

// Replay stores every record of r to sink,records of one key are summed
// first so sink sees every key once
func Replay(ctx context.Context, r io.Reader, sink counter.Sink[string]) (keys int, err error) {
	totals := map[string]counter.Fields{}
	var order []string
	err = ReadJournal(r, func(record *Record) error {
		fields, ok := totals[record.ID]
		if !ok {
			fields = counter.Fields{}
			totals[record.ID] = fields
			order = append(order, record.ID)
		}
		fields.Add(record.Fields)
		return nil
	})
	if err != nil {
		return
	}
	for _, id := range order {
		if err = sink.Store(ctx, id, totals[id]); err != nil {
			return
		}
		keys++
	}
	return
}
