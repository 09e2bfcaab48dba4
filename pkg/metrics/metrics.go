// pkg/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// "service" label keeps the series comparable with the other payment services
	PaymentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "requests_total",
			Help:      "Total inbound requests per service and route",
		},
		[]string{"service", "status", "method"},
	)

	PaymentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payment",
			Name:      "request_duration_seconds",
			Help:      "Inbound request duration per service",
			Buckets: []float64{
				0.01, 0.02, 0.03, 0.05, 0.08, 0.12,
				0.2, 0.3, 0.5, 0.8, 1.2, 2, 3, 5,
			},
		},
		[]string{"service", "status"},
	)

	GatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Outbound Checkout API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	GatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payment",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Outbound Checkout API latency by operation",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "payment",
			Subsystem: "gateway",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(
		PaymentRequestsTotal,
		PaymentRequestDuration,
		GatewayCallsTotal,
		GatewayCallDuration,
		BreakerState,
	)
}

func IncRequest(service, status, method string) {
	PaymentRequestsTotal.WithLabelValues(service, status, method).Inc()
}

func ObserveDuration(service, status string, seconds float64) {
	PaymentRequestDuration.WithLabelValues(service, status).Observe(seconds)
}

func ObserveGatewayCall(operation, outcome string, seconds float64) {
	GatewayCallsTotal.WithLabelValues(operation, outcome).Inc()
	GatewayCallDuration.WithLabelValues(operation).Observe(seconds)
}

func SetBreakerState(name string, state float64) {
	BreakerState.WithLabelValues(name).Set(state)
}
