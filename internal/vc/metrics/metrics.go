// Package metrics provides observability for the credential engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks issuance and verification volume and latency.
type Metrics struct {
	CredentialsIssued  *prometheus.CounterVec
	IssueFailures      *prometheus.CounterVec
	Verifications      *prometheus.CounterVec
	IssueDuration      prometheus.Histogram
	VerifyDuration     prometheus.Histogram
	BatchesCreated     prometheus.Counter
	BatchEntriesFailed prometheus.Counter
}

// New registers and returns the engine metrics.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unicred_credentials_issued_total",
			Help: "Total credentials issued, by credential type",
		}, []string{"type"}),
		IssueFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unicred_issue_failures_total",
			Help: "Total failed issuance attempts, by credential type",
		}, []string{"type"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unicred_verifications_total",
			Help: "Total verification requests, by outcome",
		}, []string{"outcome"}),
		IssueDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "unicred_issue_duration_seconds",
			Help:    "Duration of build+sign+persist for one credential",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "unicred_verify_duration_seconds",
			Help:    "Duration of credential verification",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BatchesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unicred_batches_created_total",
			Help: "Total bulk issuance batches created",
		}),
		BatchEntriesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unicred_batch_entries_failed_total",
			Help: "Total per-student batch entries that failed",
		}),
	}
}

// ObserveIssue records the duration of one issuance.
func (m *Metrics) ObserveIssue(start time.Time) {
	m.IssueDuration.Observe(time.Since(start).Seconds())
}

// ObserveVerify records the duration of one verification.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}
