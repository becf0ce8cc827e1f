package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks organization registry activity.
type Metrics struct {
	Created  *prometheus.CounterVec
	Reviewed *prometheus.CounterVec
	Deleted  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campusgate_organizations_created_total",
			Help: "Organizations created, by kind",
		}, []string{"kind"}),
		Reviewed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campusgate_organizations_reviewed_total",
			Help: "Organization verdicts, by decision",
		}, []string{"decision"}),
		Deleted: f.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_organizations_deleted_total",
			Help: "Organizations hard-deleted",
		}),
	}
}
