package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buzzmonitor_probes_started_total",
		Help: "Probe cycles dispatched by the scheduling loop.",
	})
	probesSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buzzmonitor_probes_settled_total",
		Help: "Probe cycles that reached a terminal status.",
	}, []string{"status"})
	probeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buzzmonitor_probe_duration_seconds",
		Help:    "Wall time from dispatch to settlement.",
		Buckets: prometheus.DefBuckets,
	})
	probesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "buzzmonitor_probes_in_flight",
		Help: "Probe cycles dispatched but not yet settled.",
	})
	ledgerEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buzzmonitor_ledger_evictions_total",
		Help: "Outcomes evicted to keep the ledger bounded.",
	})
	staleUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buzzmonitor_stale_updates_total",
		Help: "Probe results dropped because their outcome was evicted or already settled.",
	})
	idCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buzzmonitor_id_collisions_total",
		Help: "Probe cycles not dispatched because their id was already in the ledger.",
	})
	ticksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buzzmonitor_ticks_skipped_total",
		Help: "Ticks skipped because the in-flight cap was reached.",
	})
)
