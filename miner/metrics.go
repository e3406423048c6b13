package miner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hashes are accumulated locally and flushed to the counter at this rate.
const hashFlushRate = 1 << 12

var (
	hashesMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blockminer",
		Subsystem: "worker",
		Name:      "hashes_total",
		Help:      "Number of digests computed by mining workers",
	})
	seedsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blockminer",
		Subsystem: "worker",
		Name:      "seeds_total",
		Help:      "Number of seeds drawn by mining workers",
	})
	blocksMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blockminer",
		Subsystem: "worker",
		Name:      "blocks_found_total",
		Help:      "Number of blocks meeting the difficulty target found by mining workers",
	})
)
