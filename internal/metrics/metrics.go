package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

// Import groups the import job collectors. A nil *Import records nothing.
type Import struct {
	jobsStarted  *prometheus.CounterVec
	jobsFinished *prometheus.CounterVec
	rows         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

func NewImport(reg prometheus.Registerer) *Import {
	m := &Import{
		jobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ouca",
			Subsystem: "import",
			Name:      "jobs_started_total",
			Help:      "Import jobs picked up by a worker.",
		}, []string{"entity_type"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ouca",
			Subsystem: "import",
			Name:      "jobs_finished_total",
			Help:      "Import jobs that reached a terminal state.",
		}, []string{"entity_type", "state"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ouca",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Validated rows by outcome.",
		}, []string{"entity_type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ouca",
			Subsystem: "import",
			Name:      "job_duration_seconds",
			Help:      "Wall time of an import job run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"entity_type"}),
	}
	if reg != nil {
		reg.MustRegister(m.jobsStarted, m.jobsFinished, m.rows, m.duration)
	}
	return m
}

func (m *Import) JobStarted(t entity.EntityType) {
	if m == nil {
		return
	}
	m.jobsStarted.WithLabelValues(string(t)).Inc()
}

func (m *Import) JobFinished(t entity.EntityType, state entity.ImportState, d time.Duration) {
	if m == nil {
		return
	}
	m.jobsFinished.WithLabelValues(string(t), string(state)).Inc()
	m.duration.WithLabelValues(string(t)).Observe(d.Seconds())
}

func (m *Import) RowValidated(t entity.EntityType, accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.rows.WithLabelValues(string(t), outcome).Inc()
}
