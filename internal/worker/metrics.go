package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry         *prometheus.Registry
	tasksTotal       *prometheus.CounterVec
	taskDuration     *prometheus.HistogramVec
	activeTasks      prometheus.Gauge
	renditionsTotal  prometheus.Counter
	jobsExpiredTotal prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipit_worker_tasks_total",
			Help: "Total worker tasks by type and outcome.",
		}, []string{"type", "outcome"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clipit_worker_task_duration_seconds",
			Help:    "Handler duration for each worker task.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type", "outcome"}),
		activeTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clipit_worker_active_renders",
			Help: "Thumbnail renders currently holding a worker slot.",
		}),
		renditionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipit_worker_thumbnail_renditions_total",
			Help: "Total thumbnail renditions written to object storage.",
		}),
		jobsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipit_worker_jobs_expired_total",
			Help: "Total active jobs cancelled by the overdue sweep.",
		}),
	}

	registry.MustRegister(
		m.tasksTotal,
		m.taskDuration,
		m.activeTasks,
		m.renditionsTotal,
		m.jobsExpiredTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
