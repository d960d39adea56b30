package scene

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	objectsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshscene_objects_created_total",
		Help: "Total scene objects created",
	})

	objectsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshscene_objects_deleted_total",
		Help: "Total scene objects deleted outside undo and redo",
	})

	// selectionChangesTotal counts recorded selection changes; no-op changes are excluded
	selectionChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshscene_selection_changes_total",
		Help: "Total recorded selection changes",
	})

	pickQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshscene_pick_queries_total",
		Help: "Total ray pick queries by result",
	}, []string{"result"})

	pickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meshscene_pick_duration_seconds",
		Help:    "Time spent answering ray pick queries",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})
)
