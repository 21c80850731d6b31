// Package metrics exposes Prometheus instrumentation for the dispatch
// engine and the database pool.
package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeploymentsTotal counts finished deploy attempts by provider and
	// outcome (deployed, failed, skipped).
	DeploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techops_deployments_total",
			Help: "Total number of deploy attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// DeploymentsInFlight tracks provider calls currently executing.
	DeploymentsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "techops_deployments_in_flight",
			Help: "Number of provider deploy calls currently in flight",
		},
	)

	// DeployDuration observes wall time of individual provider calls.
	DeployDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "techops_deploy_duration_seconds",
			Help:    "Duration of provider deploy calls in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"provider"},
	)
)

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as
// Prometheus gauges.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "techops_pgxpool_acquired_conns",
			Help: "Number of currently acquired connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "techops_pgxpool_total_conns",
			Help: "Total number of connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "techops_pgxpool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
	)
}
