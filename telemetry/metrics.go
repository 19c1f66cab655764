package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counter labels a metric with the aggregator name
type Counter struct {
	Name string `label:"counter"`
}

// Sink labels a metric with the aggregator name and the sink kind
type Sink struct {
	Name string `label:"counter"`
	Kind string `label:"sink"`
}

// WithSink the Sink label of kind
func (p Counter) WithSink(kind string) Sink {
	return Sink{Name: p.Name, Kind: kind}
}

// Metrics of the counter aggregators
var Metrics struct {
	Aggregator struct {
		Retries func(Counter) prometheus.Counter `name:"retry_count" help:"Number of increments retried on a newer generation"`
		Rescues func(Counter) prometheus.Counter `name:"rescue_count" help:"Number of increments rescued from a harvested entry"`
		Keys    func(Counter) prometheus.Gauge   `name:"active_keys" help:"Number of keys in the active generation after the last drain"`
	} `namespace:"aggregator"`
	Drain struct {
		Total    func(Counter) prometheus.Counter `name:"count" help:"Number of drains"`
		Keys     func(Counter) prometheus.Counter `name:"key_count" help:"Number of keys handed to the sink"`
		Failed   func(Counter) prometheus.Counter `name:"failed_count" help:"Number of keys the sink failed to store"`
		Duration func(Counter) TimeHistogram      `name:"duration_seconds" help:"Drain duration" buckets:".0005,.001,.005,.01,.05,.1,.5,1,5"`
		Wait     func(Counter) TimeHistogram      `name:"quiesce_seconds" help:"Time waiting for writers to leave the retired generation" buckets:".00001,.0001,.0005,.001,.005,.01,.1"`
	} `namespace:"drain"`
	Sink struct {
		Error func(Sink) prometheus.Counter `name:"error_count" help:"Number of sink store errors"`
		Store func(Sink) TimeHistogram      `name:"store_seconds" help:"Sink store latency" buckets:".0001,.0005,.001,.005,.01,.05,.1,.5"`
	} `namespace:"sink"`
	HTTP struct {
		Requests func(HTTP) prometheus.Counter `name:"request_count" help:"Number of admin requests"`
	} `namespace:"http"`
}

// HTTP labels an admin request
type HTTP struct {
	Path string `label:"path"`
	Code string `label:"code"`
}
