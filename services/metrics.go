package services

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxToolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_invocations_total",
			Help: "Tool invocations by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	mtxUpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinbase_requests_total",
			Help: "Outbound Coinbase API requests by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	mtxUpstreamLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coinbase_request_seconds",
			Help:    "Outbound Coinbase API request latency",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(mtxToolInvocations, mtxUpstreamRequests, mtxUpstreamLatency)
}
