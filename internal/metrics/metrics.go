// Package metrics объявляет метрики Prometheus сервиса.
// Метрики регистрируются в глобальном реестре и отдаются через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы пересчёта last_use_date.
const (
	OutcomeUpdated = "updated"
	OutcomeNoop    = "noop"
	OutcomeError   = "error"
)

var (
	// LastUseRecompute считает пересчёты last_use_date по исходу.
	LastUseRecompute = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quitters",
		Name:      "last_use_recompute_total",
		Help:      "Number of last_use_date recomputations by outcome.",
	}, []string{"outcome"})

	// HookFailures считает ошибки и паники обработчиков событий.
	HookFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quitters",
		Name:      "hook_handler_failures_total",
		Help:      "Number of failed lifecycle hook handler invocations.",
	}, []string{"kind", "handler"})

	// HookDispatch считает отправленные в шину события.
	HookDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quitters",
		Name:      "hook_events_total",
		Help:      "Number of dispatched lifecycle events by kind.",
	}, []string{"kind"})

	// ReconcileRuns считает прогоны фоновой сверки.
	ReconcileRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quitters",
		Name:      "reconcile_runs_total",
		Help:      "Number of completed last_use_date reconciliation runs.",
	})

	// HTTPRequests считает HTTP-запросы по маршруту и коду ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quitters",
		Name:      "http_requests_total",
		Help:      "Number of handled HTTP requests.",
	}, []string{"method", "route", "status"})

	// HTTPDuration время обработки HTTP-запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quitters",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
