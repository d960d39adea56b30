package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// recordsTotal counts recorded changes by kind
	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshscene_history_records_total",
		Help: "Total changes recorded by kind",
	}, []string{"kind"})

	// batchesTotal counts committed non-empty batches
	batchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshscene_history_batches_total",
		Help: "Total non-empty batches committed",
	})

	undoTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshscene_history_undo_total",
		Help: "Total undo operations",
	})

	redoTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshscene_history_redo_total",
		Help: "Total redo operations",
	})
)
