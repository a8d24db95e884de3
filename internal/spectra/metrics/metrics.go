package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsPrefix = "spectra_"

// Rejection reason label values.
const (
	RejectedValidation = "validation"
	RejectedPermission = "permission"
	RejectedCapacity   = "capacity"
	RejectedStore      = "store"
)

type Metrics struct {
	JobsSubmitted       prometheus.Counter
	JobsCompleted       prometheus.Counter
	JobsFailed          prometheus.Counter
	JobsCancelled       prometheus.Counter
	SubmissionsRejected *prometheus.CounterVec
	QueuedJobs          prometheus.Gauge
	RunningJobs         prometheus.Gauge
}

// New registers the scheduler metrics with the given registerer. Tests pass
// a fresh registry so multiple schedulers can coexist in one process.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		JobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "jobs_submitted_total",
			Help: "Jobs accepted for scheduling",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "jobs_completed_total",
			Help: "Jobs that reached COMPLETED",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "jobs_failed_total",
			Help: "Jobs that reached FAILED",
		}),
		JobsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "jobs_cancelled_total",
			Help: "Jobs that reached CANCELLED",
		}),
		SubmissionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricsPrefix + "submissions_rejected_total",
			Help: "Job submissions rejected before a job was created",
		}, []string{"reason"}),
		QueuedJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: MetricsPrefix + "queued_jobs",
			Help: "Jobs currently queued for dispatch",
		}),
		RunningJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: MetricsPrefix + "running_jobs",
			Help: "Jobs currently running",
		}),
	}
}
