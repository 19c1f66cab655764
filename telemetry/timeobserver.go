package telemetry

import (
	"reflect"
	"time"

	"github.com/cabify/gotoprom/prometheusvanilla"
	"github.com/prometheus/client_golang/prometheus"
)

// TimeHistogramType is the reflect.Type of the TimeHistogram interface
var TimeHistogramType = reflect.TypeOf((*TimeHistogram)(nil)).Elem()

// registerTimeHistogram builds the underlying prometheus.Histogram and wraps every
// labelled instance as a TimeHistogram
func registerTimeHistogram(name, help, namespace string, labelNames []string, tag reflect.StructTag) (func(prometheus.Labels) interface{}, prometheus.Collector, error) {
	f, collector, err := prometheusvanilla.BuildHistogram(name, help, namespace, labelNames, tag)
	if err != nil {
		return nil, nil, err
	}
	return func(labels prometheus.Labels) interface{} {
		return timeHistogramAdapter{Histogram: f(labels).(prometheus.Histogram)}
	}, collector, nil
}

// TimeHistogram is a prometheus.Histogram observing durations in seconds
type TimeHistogram interface {
	prometheus.Histogram
	// Duration observes d in seconds
	Duration(d time.Duration)
	// Since observes the seconds elapsed since t
	Since(t time.Time)
}

type timeHistogramAdapter struct {
	prometheus.Histogram
}

func (p timeHistogramAdapter) Duration(d time.Duration) {
	p.Observe(d.Seconds())
}

func (p timeHistogramAdapter) Since(t time.Time) {
	p.Duration(time.Since(t))
}
