package counter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/d0ngw/counter/common"
)

// DefaultDrainInterval the drain interval when none is given
const DefaultDrainInterval = 100 * time.Millisecond

// DrainSchedule drains an Aggregator into a Sink periodically.
// It is the only caller of Drain,Stop drains once more so that a graceful
// shutdown keeps every accepted increment.
type DrainSchedule[K comparable] struct {
	c.BaseService
	aggregator *Aggregator[K]
	sink       Sink[K]
	interval   time.Duration
	stopChan   chan int
	stop       int32
	wg         sync.WaitGroup
}

// NewDrainSchedule create new DrainSchedule,interval <= 0 means DefaultDrainInterval
func NewDrainSchedule[K comparable](aggregator *Aggregator[K], sink Sink[K], interval time.Duration) (*DrainSchedule[K], error) {
	if aggregator == nil || c.HasNil(sink) {
		return nil, errors.New("aggregator and sink must not be nil")
	}
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	return &DrainSchedule[K]{
		BaseService: c.BaseService{SName: aggregator.Name()},
		aggregator:  aggregator,
		sink:        sink,
		interval:    interval,
		stopChan:    make(chan int, 1),
	}, nil
}

// Interval the drain interval
func (p *DrainSchedule[K]) Interval() time.Duration {
	return p.interval
}

// Init implements Initable.Init
func (p *DrainSchedule[K]) Init() error {
	if p.aggregator == nil || p.sink == nil || p.interval <= 0 {
		return errors.New("invalid aggregator,sink or interval")
	}
	return nil
}

// Start implements Service.Start
func (p *DrainSchedule[K]) Start() bool {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		c.Infof("start drain task %s,interval:%s", p.Name(), p.interval)
		timer := time.NewTimer(p.interval)
		defer timer.Stop()
		for atomic.LoadInt32(&p.stop) == 0 {
			select {
			case <-timer.C:
				p.drain()
				timer.Reset(p.interval)
			case <-p.stopChan:
			}
		}
		// the final drain runs on this goroutine too
		p.drain()
		c.Infof("finish drain task %s", p.Name())
	}()
	return true
}

func (p *DrainSchedule[K]) drain() {
	if _, err := p.aggregator.Drain(context.Background(), p.sink); err != nil {
		c.Errorf("drain %s fail,err:%v", p.Name(), err)
	}
}

// Stop implements Service.Stop
func (p *DrainSchedule[K]) Stop() bool {
	if !atomic.CompareAndSwapInt32(&p.stop, 0, 1) {
		return true
	}
	close(p.stopChan)
	c.Infof("wait drain task %s finish...", p.Name())
	p.wg.Wait()
	return true
}
