// Package persist supplies the sinks that store drained counter values
package persist

import (
	"context"
	"time"

	"github.com/d0ngw/counter/counter"
	"github.com/d0ngw/counter/telemetry"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MultiSink stores to every sink in order,an error of one sink does not
// stop the others
type MultiSink[K comparable] []counter.Sink[K]

// Store implements counter.Sink
func (p MultiSink[K]) Store(ctx context.Context, key K, fields counter.Fields) (err error) {
	for _, sink := range p {
		err = multierr.Append(err, sink.Store(ctx, key, fields))
	}
	return
}

// Instrument records the latency and errors of sink under the counter name
// and sink kind
func Instrument[K comparable](name, kind string, sink counter.Sink[K]) counter.Sink[K] {
	label := telemetry.Counter{Name: name}.WithSink(kind)
	latency := telemetry.Metrics.Sink.Store(label)
	errs := telemetry.Metrics.Sink.Error(label)
	return counter.SinkFunc[K](func(ctx context.Context, key K, fields counter.Fields) error {
		start := time.Now()
		err := sink.Store(ctx, key, fields)
		latency.Since(start)
		if err != nil {
			errs.Inc()
		}
		return err
	})
}

// LogSink writes every drained key to the logger
type LogSink[K comparable] struct {
	logger *zap.Logger
}

// NewLogSink create LogSink,nil logger means zap.L()
func NewLogSink[K comparable](logger *zap.Logger) *LogSink[K] {
	if logger == nil {
		logger = zap.L()
	}
	return &LogSink[K]{logger: logger}
}

// Store implements counter.Sink
func (p *LogSink[K]) Store(ctx context.Context, key K, fields counter.Fields) error {
	gen, _ := counter.GenerationFromContext(ctx)
	p.logger.Info("drain",
		zap.Any("id", key),
		zap.Uint64("gen", gen),
		zap.Object("fields", zapFields(fields)))
	return nil
}

type zapFields counter.Fields

func (p zapFields) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for k, v := range p {
		enc.AddInt64(k, v)
	}
	return nil
}
