// Package metrics exposes Prometheus metrics for distribution runs and
// dataset imports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom registry served on /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// OrdersAssignedTotal counts orders assigned, labelled by pool.
var OrdersAssignedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "distribution",
	Name:      "orders_assigned_total",
	Help:      "Orders assigned to an agent, by pool",
}, []string{"pool"})

// OrdersUndistributedTotal counts orders left without an agent, by reason code.
var OrdersUndistributedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "distribution",
	Name:      "orders_undistributed_total",
	Help:      "Orders that could not be distributed, by reason code",
}, []string{"reason"})

var RunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "distribution",
	Name:      "runs_total",
	Help:      "Distribution runs by final status",
}, []string{"status"})

var RunDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "distribution",
	Name:      "run_duration_seconds",
	Help:      "Time taken by one distribution run",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
})

// LastRunOrders is the number of eligible orders in the most recent run.
var LastRunOrders = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "distribution",
	Name:      "last_run_orders",
	Help:      "Eligible orders considered by the most recent run",
})

var IngestErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ingest",
	Name:      "errors_total",
	Help:      "Rows rejected while importing a dataset, by table",
}, []string{"table"})

var IngestRecordsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ingest",
	Name:      "records_total",
	Help:      "Rows imported, by table",
}, []string{"table"})

// RunObservation is what one distribution run reports.
type RunObservation struct {
	Status          string
	Duration        time.Duration
	Orders          int
	AssignedByPool  map[string]int
	UndistributedBy map[string]int
}

func ObserveRun(o RunObservation) {
	RunsTotal.WithLabelValues(o.Status).Inc()
	RunDurationSeconds.Observe(o.Duration.Seconds())
	LastRunOrders.Set(float64(o.Orders))
	for pool, n := range o.AssignedByPool {
		OrdersAssignedTotal.WithLabelValues(pool).Add(float64(n))
	}
	for reason, n := range o.UndistributedBy {
		OrdersUndistributedTotal.WithLabelValues(reason).Add(float64(n))
	}
}
