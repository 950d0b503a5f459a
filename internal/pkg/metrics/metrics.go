package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_mutations_total",
		Help: "Order mutation operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	LockContentionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_lock_contention_total",
		Help: "Mutations rejected because the per-order advisory lock was held.",
	})

	MutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_mutation_duration_seconds",
		Help:    "Wall time of order mutation operations, lock wait included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
