package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejections    prometheus.Counter
	StoreFailures prometheus.Counter
	FallbackOpen  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Rejections: f.NewCounter(prometheus.CounterOpts{
			Name: "smartration_ratelimit_login_rejections_total",
			Help: "Login attempts rejected by the throttle",
		}),
		StoreFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "smartration_ratelimit_store_failures_total",
			Help: "Errors from the primary rate limit store",
		}),
		FallbackOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "smartration_ratelimit_fallback_active",
			Help: "1 while the throttle is served from process memory because the primary store is failing",
		}),
	}
}

func (m *Metrics) IncrementRejections() {
	m.Rejections.Inc()
}

func (m *Metrics) IncrementStoreFailures() {
	m.StoreFailures.Inc()
}

func (m *Metrics) SetFallback(active bool) {
	if active {
		m.FallbackOpen.Set(1)
		return
	}
	m.FallbackOpen.Set(0)
}
