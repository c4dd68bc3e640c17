package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	votesCounted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_votes_counted_total",
		Help: "The number of votes whose weight was counted, per chain.",
	}, []string{"chain"})
	votesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_votes_rejected_total",
		Help: "The number of rejected votes, per chain.",
	}, []string{"chain"})
	justifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_justifications_total",
		Help: "The number of justifications triggered, per chain.",
	}, []string{"chain"})
	openTallies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dispatcher_open_tallies",
		Help: "The number of (chain, source, target) tallies below threshold.",
	})
	signerCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_signer_cache_hit_total",
		Help: "The number of signer recoveries served from cache.",
	})
)
