// Package metrics provides Prometheus metrics for the insumos service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadsTotal tracks read requests by market
	ReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "insumos",
			Subsystem: "api",
			Name:      "reads_total",
			Help:      "Total number of insumo read requests by market",
		},
		[]string{"market"},
	)

	// WritesTotal tracks write requests by market
	WritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "insumos",
			Subsystem: "api",
			Name:      "writes_total",
			Help:      "Total number of insumo write requests by market",
		},
		[]string{"market"},
	)

	// RowsInsertedTotal tracks rows inserted by the reconciler
	RowsInsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "insumos",
			Subsystem: "reconcile",
			Name:      "rows_inserted_total",
			Help:      "Total number of rows inserted by the reconciler",
		},
		[]string{"market"},
	)

	// RowsUpdatedTotal tracks rows updated by the reconciler
	RowsUpdatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "insumos",
			Subsystem: "reconcile",
			Name:      "rows_updated_total",
			Help:      "Total number of rows updated by the reconciler",
		},
		[]string{"market"},
	)

	// ReconcileDuration tracks how long a reconcile pass takes
	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "insumos",
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Duration of reconcile passes in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)
