package datablocks

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors tracking node execution
// counts and durations, per SPEC_FULL.md 2's ambient metrics section.
// The collectors are registered on prometheus's default registry
// exactly once (via registerMetricsOnce), regardless of how many
// Engine values are constructed, so cmd/flowcored can expose them
// through the package-level prometheus.Handler() the way client_golang
// v0.8.0's API expects (it predates the promhttp subpackage).
type Metrics struct {
	tasksStarted   prometheus.Counter
	tasksSucceeded prometheus.Counter
	tasksFailed    prometheus.Counter
	tasksRetried   prometheus.Counter
	taskDuration   prometheus.Histogram
}

var (
	registerMetricsOnce sync.Once
	sharedMetrics       *Metrics
)

func newMetrics() *Metrics {
	registerMetricsOnce.Do(func() {
		m := &Metrics{
			tasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "datablocks_tasks_started_total",
				Help: "Total number of node executions started.",
			}),
			tasksSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "datablocks_tasks_succeeded_total",
				Help: "Total number of node executions that succeeded.",
			}),
			tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "datablocks_tasks_failed_total",
				Help: "Total number of node execution attempts that failed.",
			}),
			tasksRetried: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "datablocks_tasks_retried_total",
				Help: "Total number of node execution retries.",
			}),
			taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "datablocks_task_duration_seconds",
				Help:    "Node execution duration in seconds.",
				Buckets: prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(m.tasksStarted, m.tasksSucceeded, m.tasksFailed, m.tasksRetried, m.taskDuration)
		sharedMetrics = m
	})
	return sharedMetrics
}

func (m *Metrics) observeStarted() { m.tasksStarted.Inc() }
func (m *Metrics) observeSucceeded(d time.Duration) {
	m.tasksSucceeded.Inc()
	m.taskDuration.Observe(d.Seconds())
}
func (m *Metrics) observeFailed(d time.Duration) {
	m.tasksFailed.Inc()
	m.taskDuration.Observe(d.Seconds())
}
func (m *Metrics) observeRetried() { m.tasksRetried.Inc() }
