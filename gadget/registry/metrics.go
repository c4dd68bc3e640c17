package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	currentHeightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "registry_current_height",
		Help: "The height the weight registry currently considers open.",
	})
	validatorCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "registry_validator_count",
		Help: "The number of validators ever registered, evicted ones included.",
	})
	depositCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_deposit_count",
		Help: "The number of accepted deposits after genesis.",
	})
	evictionCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_eviction_count",
		Help: "The number of evicted validators.",
	})
)
