package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks placement records and the report cache.
type Metrics struct {
	Recorded    prometheus.Counter
	Verified    *prometheus.CounterVec
	ReportCache *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recorded: f.NewCounter(prometheus.CounterOpts{
			Name: "campusgate_placements_recorded_total",
			Help: "Placements recorded by institution admins",
		}),
		Verified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campusgate_placements_verified_total",
			Help: "Company decisions on placements, by decision",
		}, []string{"decision"}),
		ReportCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campusgate_placement_report_cache_total",
			Help: "Aggregate report lookups, by cache result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncCacheHit()  { m.ReportCache.WithLabelValues("hit").Inc() }
func (m *Metrics) IncCacheMiss() { m.ReportCache.WithLabelValues("miss").Inc() }
