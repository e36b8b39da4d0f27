package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	cronResultSuccess = "success"
	cronResultFailure = "failure"
)

// CronJobMetrics records runs of the maintenance jobs: pending-order sweeps and
// outbox retention.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	items       *prometheus.CounterVec
	lockSkipped prometheus.Counter
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Cron job executions, by result.",
	}, []string{"job", "result"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_items_total",
		Help: "Orders expired or rows pruned by cron jobs.",
	}, []string{"job"})
	lockSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cron_lock_skipped_total",
		Help: "Cycles skipped because another replica held the cron lock.",
	})
	reg.MustRegister(duration, runs, items, lockSkipped)
	return &CronJobMetrics{
		duration:    duration,
		runs:        runs,
		items:       items,
		lockSkipped: lockSkipped,
	}
}

// ObserveRun records one execution of job: its duration, its result and how
// many items it acted on.
func (c *CronJobMetrics) ObserveRun(job string, duration time.Duration, processed int, err error) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(duration.Seconds())
	result := cronResultSuccess
	if err != nil {
		result = cronResultFailure
	}
	c.runs.WithLabelValues(job, result).Inc()
	if processed > 0 {
		c.items.WithLabelValues(job).Add(float64(processed))
	}
}

// IncLockSkipped counts a cycle that did not run because the lock was taken.
func (c *CronJobMetrics) IncLockSkipped() {
	if c == nil || c.lockSkipped == nil {
		return
	}
	c.lockSkipped.Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
