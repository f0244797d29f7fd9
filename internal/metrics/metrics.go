package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoundsTotal counts scanning rounds by result (advanced, idle, failed)
	RoundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewarder_rounds_total",
			Help: "Total number of deposit scanning rounds",
		},
		[]string{"result"},
	)

	// RoundDuration tracks round processing time
	RoundDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rewarder_round_duration_seconds",
			Help:    "Deposit scanning round duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// BlocksProcessed counts blocks scanned per bridge
	BlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewarder_blocks_processed_total",
			Help: "Total number of blocks scanned",
		},
		[]string{"bridge"},
	)

	// DepositsDetected counts normalized deposits per bridge and token
	DepositsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewarder_deposits_detected_total",
			Help: "Total number of bridge deposits detected",
		},
		[]string{"bridge", "token"},
	)

	// DepositsSkipped counts events that did not produce a deposit
	DepositsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewarder_deposits_skipped_total",
			Help: "Total number of bridge events skipped during normalization",
		},
		[]string{"bridge", "reason"},
	)

	// RewardOutcomes counts reward queue decisions
	RewardOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewarder_reward_outcomes_total",
			Help: "Total number of reward eligibility decisions by outcome",
		},
		[]string{"outcome"},
	)

	// RewardTransitions counts reward status transitions
	RewardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewarder_reward_transitions_total",
			Help: "Total number of reward status transitions",
		},
		[]string{"status"},
	)

	// PendingRewards tracks rewards per status as of the last status query
	PendingRewards = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rewarder_rewards",
			Help: "Number of rewards by status",
		},
		[]string{"status"},
	)

	// OperatorBalance tracks the operator account balance in wei
	OperatorBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rewarder_operator_balance_wei",
			Help: "Operator account native balance in wei",
		},
	)

	// GasPrice tracks the last observed gas price in wei
	GasPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rewarder_gas_price_wei",
			Help: "Last observed gas price in wei",
		},
	)

	// ErrorsTotal counts errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewarder_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// LastProcessedBlock tracks the last fully scanned block
	LastProcessedBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rewarder_last_processed_block",
			Help: "Last block fully scanned for deposits",
		},
	)

	rpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "rpc_client",
			Name:      "operations_total",
			Help:      "Count of chain RPC operations.",
		},
		[]string{"operation", "status"},
	)

	rpcRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: "rpc_client",
			Name:      "operation_duration_seconds",
			Help:      "Duration of chain RPC operations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
)

// ObserveRPC records a single RPC call outcome and duration.
func ObserveRPC(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	rpcRequestsTotal.WithLabelValues(operation, status).Inc()
	rpcRequestDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}
