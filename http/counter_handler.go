package http

import (
	"net/http"
	"strconv"

	"github.com/d0ngw/counter/counter"
	"github.com/d0ngw/counter/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// statusRecorder keeps the status code for the request metric
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (p *statusRecorder) WriteHeader(code int) {
	p.code = code
	p.ResponseWriter.WriteHeader(code)
}

// Counted counts the requests of path by status code
func Counted(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		telemetry.Metrics.HTTP.Requests(telemetry.HTTP{Path: path, Code: strconv.Itoa(rec.code)}).Inc()
	}
}

// RegMetrics register the prometheus handler at /metrics
func RegMetrics(conf *Config) error {
	return conf.RegHandler("/metrics", promhttp.Handler())
}

// CounterHandler serves the increments and pending values of an aggregator
type CounterHandler struct {
	aggregator *counter.Aggregator[string]
}

// NewCounterHandler create CounterHandler
func NewCounterHandler(aggregator *counter.Aggregator[string]) *CounterHandler {
	return &CounterHandler{aggregator: aggregator}
}

// Register the handlers under /counter/
func (p *CounterHandler) Register(conf *Config) error {
	if err := conf.RegHandleFunc("/counter/incr", Counted("/counter/incr", p.Incr)); err != nil {
		return err
	}
	return conf.RegHandleFunc("/counter/get", Counted("/counter/get", p.Get))
}

// Incr handles /counter/incr?id=<id>&<field>=<delta>...
func (p *CounterHandler) Incr(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		RenderError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := GetParameter(r.Form, "id")
	if id == "" {
		RenderError(w, http.StatusBadRequest, "missing id")
		return
	}
	fields := counter.Fields{}
	for _, name := range p.aggregator.Schema().Names() {
		if GetParameter(r.Form, name) == "" {
			continue
		}
		delta, err := GetInt64Parameter(r.Form, name)
		if err != nil {
			RenderError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		fields[name] = delta
	}
	if len(fields) == 0 {
		RenderError(w, http.StatusBadRequest, "no field")
		return
	}
	if err := p.aggregator.Incr(id, fields); err != nil {
		RenderError(w, http.StatusBadRequest, err.Error())
		return
	}
	RenderOK(w, nil)
}

// Get handles /counter/get?id=<id>,the values not yet drained
func (p *CounterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := GetParameter(r.URL.Query(), "id")
	if id == "" {
		RenderError(w, http.StatusBadRequest, "missing id")
		return
	}
	fields, ok := p.aggregator.Get(id)
	if !ok {
		fields = p.aggregator.Schema().ToFields(nil)
	}
	RenderOK(w, fields)
}
