package httptransport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goldledger_ingest_requests_total",
		Help: "POST /api/events requests by outcome.",
	}, []string{"outcome"})

	ledgerQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goldledger_ledger_queries_total",
		Help: "Ledger read requests by route and outcome.",
	}, []string{"route", "outcome"})
)
