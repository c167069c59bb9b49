package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		},
		[]string{"op"},
	)

	persistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_persist_failures_total",
			Help: "Total number of failed cart persistence operations",
		},
		[]string{"op"},
	)

	hydrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_hydrations_total",
			Help: "Total number of cart hydrations by outcome",
		},
		[]string{"result"},
	)

	liveStores = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_live_stores",
			Help: "Number of device carts currently held in memory",
		},
	)
)
