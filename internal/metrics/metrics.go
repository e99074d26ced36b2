package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Keeper loop metrics. Registered on the default registry and served by
// the web server's /metrics endpoint.
var (
	ScanCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keeper_scan_cycles_total",
		Help: "Number of completed keeper scan cycles.",
	})

	VaultsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keeper_vaults_scanned_total",
		Help: "Number of vaults evaluated across all scan cycles.",
	})

	LiquidatableVaults = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keeper_liquidatable_vaults",
		Help: "Vaults flagged liquidatable in the latest scan cycle.",
	})

	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keeper_transactions_total",
		Help: "Transactions submitted by the keeper, by final status.",
	}, []string{"status"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "keeper_scan_duration_seconds",
		Help:    "Wall time of one full scan cycle.",
		Buckets: prometheus.DefBuckets,
	})

	OraclePrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keeper_oracle_price",
		Help: "Latest oracle price observed, in display units.",
	})
)
