package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	betTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_bets_total",
			Help: "Bets placed by game and result",
		},
		[]string{"game", "result"},
	)

	settlementTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_settlements_total",
			Help: "Settled rounds by game and outcome",
		},
		[]string{"game", "outcome"},
	)

	ledgerOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_ledger_ops_total",
			Help: "Ledger mutations by type and result",
		},
		[]string{"type", "result"},
	)

	ledgerOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casino_ledger_op_duration_ms",
			Help:    "Ledger mutation duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"type"},
	)

	pendingSettlements = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "casino_pending_settlements",
			Help: "Settled rounds whose credit has not been confirmed",
		},
	)

	httpReqTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpReqDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request duration in ms",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"path", "method"},
	)
)

// RecordBet counts a bet attempt. result is "accepted", "settlement_pending"
// or a rejection reason.
func RecordBet(game, result string) {
	betTotal.WithLabelValues(game, result).Inc()
}

func RecordSettlement(game, outcome string) {
	settlementTotal.WithLabelValues(game, outcome).Inc()
}

func RecordLedgerOp(opType, result string, started time.Time) {
	ledgerOpTotal.WithLabelValues(opType, result).Inc()
	ledgerOpDuration.WithLabelValues(opType).Observe(float64(time.Since(started).Milliseconds()))
}

func SettlementPending()  { pendingSettlements.Inc() }
func SettlementResolved() { pendingSettlements.Dec() }

func RecordHTTP(path, method string, status int, started time.Time) {
	httpReqDuration.WithLabelValues(path, method).Observe(float64(time.Since(started).Milliseconds()))
	httpReqTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}
