package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goldledger_transactions_emitted_total",
		Help: "Transactions emitted by the reconciliation engine.",
	}, []string{"kind", "status"})

	arbiterCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goldledger_arbiter_cycles_total",
		Help: "Arbitration cycles by outcome.",
	}, []string{"outcome"})

	retriesExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goldledger_retries_exhausted_total",
		Help: "Bounded retries that ran out of attempts.",
	}, []string{"tracker"})

	appendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goldledger_append_errors_total",
		Help: "Ledger appends that failed.",
	})

	invariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goldledger_invariant_violations_total",
		Help: "Programming invariant violations caught at runtime.",
	})
)
