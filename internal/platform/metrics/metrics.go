package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics shared by all routers.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
}

// New creates and registers the HTTP metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartration_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route pattern",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "smartration_http_requests_total",
			Help: "Total HTTP requests by route pattern and status code",
		}, []string{"method", "route", "status"}),
	}
}

// ObserveRequest records one completed request. Call with time.Now() taken at
// the start of the request.
func (m *Metrics) ObserveRequest(method, route, status string, start time.Time) {
	m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
}
