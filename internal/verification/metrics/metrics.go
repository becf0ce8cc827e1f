package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the verification workflow.
type Metrics struct {
	Submissions    *prometheus.CounterVec
	Reviews        *prometheus.CounterVec
	UploadFailures prometheus.Counter
	UploadLatency  prometheus.Histogram
	AccountsSeeded *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campusgate_verification_submissions_total",
			Help: "Accepted verification submissions, by role",
		}, []string{"role"}),
		Reviews: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campusgate_verification_reviews_total",
			Help: "Verification verdicts, by role and decision",
		}, []string{"role", "decision"}),
		UploadFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_verification_upload_failures_total",
			Help: "Submissions aborted because a document upload failed",
		}),
		UploadLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "campusgate_verification_upload_duration_seconds",
			Help:    "Latency of a single evidence upload to the document store",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		AccountsSeeded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campusgate_accounts_created_total",
			Help: "Accounts created on first sign-in, by initial role",
		}, []string{"role"}),
	}
}

func (m *Metrics) ObserveUpload(d time.Duration) {
	m.UploadLatency.Observe(d.Seconds())
}
