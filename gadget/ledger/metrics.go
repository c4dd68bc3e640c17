package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_applied_total",
		Help: "The number of operations applied, per kind.",
	}, []string{"kind"})
	operationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_failed_total",
		Help: "The number of operations rejected, per kind.",
	}, []string{"kind"})
)
