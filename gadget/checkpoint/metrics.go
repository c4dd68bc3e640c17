package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reportedBlockCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkpoint_reported_block_count",
		Help: "The number of block headers accepted per chain.",
	}, []string{"chain"})
	justifiedHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "checkpoint_justified_height",
		Help: "The height of the most recently justified checkpoint per chain.",
	}, []string{"chain"})
	headHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "checkpoint_head_height",
		Help: "The height of the finalized head per chain.",
	}, []string{"chain"})
	dynastyGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "checkpoint_dynasty",
		Help: "The number of finalizations per chain.",
	}, []string{"chain"})
)
