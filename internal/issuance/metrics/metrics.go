package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for issuance and reconciliation.
type Metrics struct {
	RationsIssued      prometheus.Counter
	DuplicateIssuances prometheus.Counter
	CollectionToggles  *prometheus.CounterVec
	LookupDuration     prometheus.Histogram
	IssueDuration      prometheus.Histogram
}

// New creates a Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RationsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "smartration_rations_issued_total",
			Help: "Total number of distributions created",
		}),
		DuplicateIssuances: f.NewCounter(prometheus.CounterOpts{
			Name: "smartration_duplicate_issuances_total",
			Help: "Issuance attempts rejected because the card was already served this month",
		}),
		CollectionToggles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "smartration_collection_toggles_total",
			Help: "Reconciliation updates by target state",
		}, []string{"completed"}),
		LookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartration_entitlement_lookup_duration_seconds",
			Help:    "Duration of entitlement lookups (card + catalog read)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		IssueDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartration_issue_ration_duration_seconds",
			Help:    "Duration of IssueRation operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementIssued() {
	m.RationsIssued.Inc()
}

func (m *Metrics) IncrementDuplicate() {
	m.DuplicateIssuances.Inc()
}

func (m *Metrics) IncrementToggle(completed bool) {
	label := "false"
	if completed {
		label = "true"
	}
	m.CollectionToggles.WithLabelValues(label).Inc()
}

// ObserveLookup records the duration of a LookupEntitlement call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLookup(start time.Time) {
	m.LookupDuration.Observe(time.Since(start).Seconds())
}

// ObserveIssue records the duration of an IssueRation call.
func (m *Metrics) ObserveIssue(start time.Time) {
	m.IssueDuration.Observe(time.Since(start).Seconds())
}
