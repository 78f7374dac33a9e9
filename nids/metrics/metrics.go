// Package metrics exposes the pipeline's Prometheus instrumentation.
// This is purely additive observability: nothing here feeds back into
// flow or classification semantics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PacketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "layton_packets_total",
		Help: "Total TCP/IPv4 packets accepted by the capture stage.",
	})

	BytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "layton_bytes_total",
		Help: "Total payload bytes accepted by the capture stage.",
	})

	FlowsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "layton_flows_active",
		Help: "Number of flows currently tracked in the flow table.",
	})

	FlowsClassifiedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "layton_flows_classified_total",
		Help: "Total flows that completed classification.",
	})

	FlowsAttackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "layton_flows_attack_total",
		Help: "Total flows the binary model labeled as an attack.",
	})

	ClassificationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "layton_classification_seconds",
		Help:    "Per-stage model inference latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

// NewRegistry builds a dedicated Prometheus registry carrying the
// pipeline's collectors, kept separate from the global default registerer
// so a process can run more than one Pipeline without collector conflicts.
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(PacketsTotal, BytesTotal, FlowsActive, FlowsClassifiedTotal, FlowsAttackTotal, ClassificationSeconds)
	return r
}
