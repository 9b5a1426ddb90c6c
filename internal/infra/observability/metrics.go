// Package observability defines the Prometheus metrics exported on /metrics.
// Metrics are package-level and registered at init via promauto; components
// record into them directly.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// TransfersTotal counts completed transfers by outcome.
var TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "ledger",
	Name:      "transfers_total",
	Help:      "Total transfer attempts by outcome.",
}, []string{"outcome"})

// DustBurned accumulates the total dust destroyed by transfer fees.
var DustBurned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "ledger",
	Name:      "dust_burned_total",
	Help:      "Total dust destroyed by transfer burn fees.",
})

// TotalSupply tracks the circulating supply (spendable + staked).
var TotalSupply = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ked",
	Subsystem: "ledger",
	Name:      "total_supply",
	Help:      "Current circulating dust supply including staked amounts.",
})

// ─── Staking Metrics ────────────────────────────────────────────────────────

// StakeOps counts stake and unstake operations.
var StakeOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "staking",
	Name:      "operations_total",
	Help:      "Total staking operations by kind.",
}, []string{"kind"})

// YieldPaid accumulates total yield minted by unstakes.
var YieldPaid = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "staking",
	Name:      "yield_paid_total",
	Help:      "Total yield dust minted on unstake.",
})

// ─── Governance Metrics ─────────────────────────────────────────────────────

// ProposalsCreated counts proposals opened.
var ProposalsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "governance",
	Name:      "proposals_created_total",
	Help:      "Total proposals created.",
})

// ProposalsResolved counts resolution outcomes.
var ProposalsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "governance",
	Name:      "proposals_resolved_total",
	Help:      "Total proposals resolved by final status.",
}, []string{"status"})

// VotesCast counts votes recorded.
var VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "governance",
	Name:      "votes_cast_total",
	Help:      "Total votes cast by choice.",
}, []string{"choice"})

// ─── Gravity Well Metrics ───────────────────────────────────────────────────

// GravityPool tracks the current accumulated fee pool.
var GravityPool = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ked",
	Subsystem: "gravity",
	Name:      "pool_level",
	Help:      "Dust currently accumulated in the gravity well.",
})

// GravityDistributed accumulates total dust paid out by distribution rounds.
var GravityDistributed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "gravity",
	Name:      "distributed_total",
	Help:      "Total dust distributed by the gravity well.",
})

// GravityRecipients counts accounts credited across all rounds.
var GravityRecipients = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "gravity",
	Name:      "recipients_total",
	Help:      "Total recipient credits across distribution rounds.",
})

// ─── Reserve Metrics ────────────────────────────────────────────────────────

// ReserveLiters tracks the water reserve level.
var ReserveLiters = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ked",
	Subsystem: "reserve",
	Name:      "water_liters",
	Help:      "Current water reserve in liters.",
})

// ReserveCoverage tracks backing coverage of the dust supply.
var ReserveCoverage = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ked",
	Subsystem: "reserve",
	Name:      "coverage_percent",
	Help:      "Percentage of the dust supply backed by the reserve.",
})

// ─── Scheduler Metrics ──────────────────────────────────────────────────────

// SchedulerTicks counts background ticks by outcome.
var SchedulerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ked",
	Subsystem: "scheduler",
	Name:      "ticks_total",
	Help:      "Total scheduler ticks by outcome.",
}, []string{"outcome"})

// SchedulerTickDuration observes how long a full tick takes.
var SchedulerTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "ked",
	Subsystem: "scheduler",
	Name:      "tick_duration_seconds",
	Help:      "Duration of scheduler ticks in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
})
