package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/d0ngw/counter/counter"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run concurrent writers against a draining aggregator and verify the totals",
	RunE:  runBenchCmd,
}

func init() {
	benchCmd.Flags().Int("writers", 2, "number of concurrent writers")
	benchCmd.Flags().Int("loops", 1000000, "increments per writer")
	benchCmd.Flags().Int("keys", 1, "number of distinct keys")
	benchCmd.Flags().Duration("bench-interval", 100*time.Millisecond, "drain interval")
	benchCmd.Flags().String("bench-strategy", "epoch", "guard strategy (epoch, optimistic)")
}

type benchOptions struct {
	writers  int
	loops    int
	keys     int
	interval time.Duration
	strategy counter.Strategy
}

type benchResult struct {
	totals   counter.Fields
	drains   int
	elapsed  time.Duration
	registry metrics.Registry
}

const (
	benchLike    = 2
	benchComment = 4
	markBatch    = 1024
)

func runBench(ctx context.Context, opts benchOptions) (*benchResult, error) {
	if opts.writers <= 0 || opts.loops <= 0 || opts.keys <= 0 || opts.interval <= 0 {
		return nil, fmt.Errorf("invalid bench options %+v", opts)
	}
	registry := metrics.NewRegistry()
	incr := metrics.GetOrRegisterMeter("increments", registry)
	defer incr.Stop()
	drainTimer := metrics.GetOrRegisterTimer("drain", registry)
	drainKeys := metrics.GetOrRegisterHistogram("drain.keys", registry, metrics.NewUniformSample(1028))

	a := counter.New[string]("bench", counter.MustSchema("like", "comment"), counter.WithStrategy(opts.strategy))
	var mu sync.Mutex
	totals := counter.Fields{}
	sink := counter.SinkFunc[string](func(ctx context.Context, key string, fields counter.Fields) error {
		mu.Lock()
		totals.Add(fields)
		mu.Unlock()
		return nil
	})
	result := &benchResult{registry: registry}
	drain := func() error {
		start := time.Now()
		stats, err := a.Drain(ctx, sink)
		if err != nil {
			return err
		}
		drainTimer.UpdateSince(start)
		drainKeys.Update(int64(stats.Keys))
		result.drains++
		return nil
	}

	keys := make([]string, opts.keys)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	done := make(chan struct{})
	drained := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := drain(); err != nil {
					drained <- err
					return
				}
			case <-done:
				drained <- nil
				return
			}
		}
	}()

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < opts.writers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < opts.loops; i++ {
				a.Add(keys[(w+i)%len(keys)], benchLike, benchComment)
				if i%markBatch == markBatch-1 {
					incr.Mark(markBatch)
				}
			}
			incr.Mark(int64(opts.loops % markBatch))
			return nil
		})
	}
	_ = g.Wait()
	result.elapsed = time.Since(start)
	close(done)
	if err := <-drained; err != nil {
		return nil, err
	}
	if err := drain(); err != nil {
		return nil, err
	}

	result.totals = totals
	want := int64(opts.writers) * int64(opts.loops)
	if totals["like"] != want*benchLike || totals["comment"] != want*benchComment {
		return result, fmt.Errorf("lost or duplicated increments,got %v,want like=%d comment=%d", totals, want*benchLike, want*benchComment)
	}
	return result, nil
}

func (p *benchResult) report(w io.Writer) {
	fmt.Fprintf(w, "totals: %v\n", p.totals)
	fmt.Fprintf(w, "drains: %d,elapsed: %s\n", p.drains, p.elapsed)
	metrics.WriteOnce(p.registry, w)
}

func runBenchCmd(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	strategy, err := counter.ParseStrategy(viper.GetString("bench-strategy"))
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := runBench(ctx, benchOptions{
		writers:  viper.GetInt("writers"),
		loops:    viper.GetInt("loops"),
		keys:     viper.GetInt("keys"),
		interval: viper.GetDuration("bench-interval"),
		strategy: strategy,
	})
	if result != nil {
		result.report(os.Stdout)
	}
	return err
}
