// Package telemetry holds the prometheus metrics of the counter service
package telemetry

import (
	"os"

	"github.com/cabify/gotoprom"
)

const defaultNamespace = "counter"

func setupPrometheusMetrics(metrics interface{}, namespace string) {
	gotoprom.MustAddBuilder(TimeHistogramType, registerTimeHistogram)
	gotoprom.MustInit(metrics, namespace)
}

func getNamespace(defaultNS string) (ns string) {
	if ns = os.Getenv("TELEMETRY_NAMESPACE"); ns == "" {
		ns = defaultNS
	}
	return
}

func init() {
	setupPrometheusMetrics(&Metrics, getNamespace(defaultNamespace))
}
