// Package prom exports scope and task lifecycle events as Prometheus
// metrics. It implements the scope.Observer interface.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observer records scope lifecycle events on Prometheus collectors.
// All methods are safe for concurrent use.
type Observer struct {
	scopesCreated   prometheus.Counter
	scopesCancelled prometheus.Counter
	joins           prometheus.Counter
	joinWait        prometheus.Histogram

	activeTasks   prometheus.Gauge
	tasksStarted  prometheus.Counter
	tasksFinished *prometheus.CounterVec
	taskDuration  prometheus.Histogram
}

// New registers the observer's collectors with reg and returns it. Pass
// prometheus.DefaultRegisterer to use the process-wide registry.
func New(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		scopesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_created_total",
			Help: "Number of scopes created.",
		}),
		scopesCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_cancelled_total",
			Help: "Number of scopes cancelled.",
		}),
		joins: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_joins_total",
			Help: "Number of completed scope joins.",
		}),
		joinWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scope_join_wait_seconds",
			Help:    "Time spent waiting for scope tasks to finish.",
			Buckets: prometheus.DefBuckets,
		}),
		activeTasks: f.NewGauge(prometheus.GaugeOpts{
			Name: "scope_tasks_active",
			Help: "Tasks currently running.",
		}),
		tasksStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_tasks_started_total",
			Help: "Tasks started.",
		}),
		tasksFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scope_tasks_finished_total",
			Help: "Tasks finished, by result.",
		}, []string{"result"}),
		taskDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scope_task_duration_seconds",
			Help:    "Task run time.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (o *Observer) ScopeCreated(context.Context) { o.scopesCreated.Inc() }

func (o *Observer) ScopeCancelled(context.Context, error) { o.scopesCancelled.Inc() }

func (o *Observer) ScopeJoined(_ context.Context, wait time.Duration) {
	o.joins.Inc()
	o.joinWait.Observe(wait.Seconds())
}

func (o *Observer) TaskStarted(context.Context) {
	o.activeTasks.Inc()
	o.tasksStarted.Inc()
}

func (o *Observer) TaskFinished(_ context.Context, dur time.Duration, err error, panicked bool) {
	o.activeTasks.Dec()
	switch {
	case panicked:
		o.tasksFinished.WithLabelValues("panic").Inc()
	case err != nil:
		o.tasksFinished.WithLabelValues("error").Inc()
	default:
		o.tasksFinished.WithLabelValues("ok").Inc()
	}
	o.taskDuration.Observe(dur.Seconds())
}
