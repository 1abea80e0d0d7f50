// Package telemetry registers the Prometheus metrics shared across the
// balancer and backend processes and exposes them via promhttp, mirroring
// the bare prometheus/client_golang usage the reference sidecar proxy
// wires up directly in its own metrics.go.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BackendRequestsTotal counts SayHello calls served, labeled by
	// backend id.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prequal_backend_requests_total",
			Help: "Total number of SayHello requests served by a backend.",
		},
		[]string{"backend"},
	)

	// BackendRif tracks a backend's last-observed requests-in-flight.
	BackendRif = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prequal_backend_rif",
			Help: "Current requests-in-flight reported by a backend.",
		},
		[]string{"backend"},
	)

	// ProbeOutcomesTotal counts probe results by outcome: success,
	// transient, failure.
	ProbeOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prequal_probe_outcomes_total",
			Help: "Total probe outcomes, labeled by result.",
		},
		[]string{"outcome"},
	)

	// FrontendRequestsTotal counts SayHello calls by outcome: ok, or
	// internal for any failure (no usable backend or a failed forward,
	// whatever HTTP status the caller then receives).
	FrontendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prequal_frontend_requests_total",
			Help: "Total SayHello requests handled by the frontend, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	// ActiveBackends reports the current size of the registry's active set.
	ActiveBackends = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prequal_active_backends",
			Help: "Number of backends currently marked active in the registry.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BackendRequestsTotal,
		BackendRif,
		ProbeOutcomesTotal,
		FrontendRequestsTotal,
		ActiveBackends,
	)
}

// Handler serves the registered metrics in the Prometheus exposition
// format.
func Handler() http.Handler {
	return promhttp.Handler()
}
