// Package observability provides Prometheus metrics for domain operations.
package observability

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memehub_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// LikeToggles counts like toggle transitions by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memehub_like_toggles_total",
		Help: "Total number of like toggles by resulting state (liked/unliked)",
	}, []string{"state"})

	// LikeCounterFailures counts counter writes that did not apply after a
	// successful vote-record write. Any increase here is a consistency signal.
	LikeCounterFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memehub_like_counter_failures_total",
		Help: "Total number of like counter updates that failed after a vote record write",
	})

	// URLRefreshes counts lazy presigned URL refreshes by outcome.
	URLRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memehub_url_refreshes_total",
		Help: "Total number of lazy presigned URL refreshes by outcome (ok/degraded)",
	}, []string{"outcome"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the Fiber Prometheus middleware for HTTP-level metrics.
// The underlying collectors register with the default registry, so the
// middleware is created once and shared.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}
