package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义 Guard 业务监控指标
type BusinessMetrics struct {
	TransactionsQueuedTotal prometheus.Counter
	VotesTotal              *prometheus.CounterVec // kind: veto / freeze
	VoteRejectedTotal       *prometheus.CounterVec // reason
	ExecutionChecksTotal    *prometheus.CounterVec // result: allowed / not_queued / ...
	ExecutionsTotal         *prometheus.CounterVec // success: true / false
	SystemFrozen            prometheus.Gauge
	QueuedEntries           prometheus.Gauge
	OutboxRelayedTotal      *prometheus.CounterVec // status: sent / failed
	PowerLookupDuration     prometheus.Histogram
}

// Business 全局业务指标实例
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标 (由 Init 保证只执行一次)
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		TransactionsQueuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guard_transactions_queued_total",
			Help: "The total number of admitted Safe transactions",
		}),
		VotesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_votes_total",
			Help: "The total number of accepted votes",
		}, []string{"kind"}),
		VoteRejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_votes_rejected_total",
			Help: "The total number of rejected votes",
		}, []string{"reason"}),
		ExecutionChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_execution_checks_total",
			Help: "Outcomes of the pre-execution guard check",
		}, []string{"result"}),
		ExecutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_executions_total",
			Help: "Post-execution hook invocations",
		}, []string{"success"}),
		SystemFrozen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "guard_system_frozen",
			Help: "1 while the system-wide freeze is active",
		}),
		QueuedEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "guard_queued_entries",
			Help: "Number of queue entries recorded",
		}),
		OutboxRelayedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_outbox_relayed_total",
			Help: "Outbox messages handed to the message queue",
		}, []string{"status"}),
		PowerLookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "guard_power_lookup_duration_seconds",
			Help:    "Latency of voting power lookups",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
