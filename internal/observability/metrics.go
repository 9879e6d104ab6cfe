// Package observability provides Prometheus instruments for pagevox.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	RelayMessages  *prometheus.CounterVec
	RelayFailures  *prometheus.CounterVec
	ProviderErrors *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
}

// Relay direction labels.
const (
	DirectionUpstream   = "upstream"   // client -> provider
	DirectionDownstream = "downstream" // provider -> client
)

// New registers and returns the service instruments under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_relay_sessions",
			Help:      "Number of active realtime relay sessions.",
		}),
		RelayMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_messages_total",
			Help:      "Messages forwarded by the relay, by direction.",
		}, []string{"direction"}),
		RelayFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_failures_total",
			Help:      "Relay sessions that failed, by stage.",
		}, []string{"stage"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Upstream provider call failures by operation.",
		}, []string{"operation"}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
