// Package metrics provides Prometheus instrumentation shared by the three
// Satori services, plus a small extension per service for its own domain
// counters and gauges.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Base holds the request-level metrics common to every HTTP-serving
// component, registered against a private registry so tests can construct
// as many independent instances as they like without colliding in the
// default global registry.
type Base struct {
	registry      *prometheus.Registry
	requestsTotal prometheus.Counter
	errorsTotal   prometheus.Counter
}

func newBase(namespace string) *Base {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_errors_total",
		Help:      "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(requestsTotal, errorsTotal)

	return &Base{registry: registry, requestsTotal: requestsTotal, errorsTotal: errorsTotal}
}

// Registry exposes the underlying registry so a domain extension can
// register its own collectors against it.
func (b *Base) Registry() *prometheus.Registry { return b.registry }

// IncRequests increments the total request counter.
func (b *Base) IncRequests() { b.requestsTotal.Inc() }

// IncErrors increments the error counter.
func (b *Base) IncErrors() { b.errorsTotal.Inc() }

// Handler returns an http.Handler that serves the Prometheus exposition
// format. updateGauges, if non-nil, is called before each scrape to refresh
// gauge values derived from in-memory state (queue length, open events,
// segment index size, disk usage, ...).
func (b *Base) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
