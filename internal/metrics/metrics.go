// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_reconciliations_total",
			Help: "Reconciliation attempts by transaction type and outcome",
		},
		[]string{"type", "outcome"},
	)

	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_gateway_requests_total",
			Help: "Outbound gateway calls by operation and result",
		},
		[]string{"op", "result"},
	)

	GatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_gateway_request_duration_seconds",
			Help:    "Duration of outbound gateway calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"op"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_webhook_events_total",
			Help: "Inbound webhook deliveries by disposition",
		},
		[]string{"disposition"},
	)

	WebhookQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallet_webhook_queue_depth",
			Help: "Webhook events accepted but not yet reconciled",
		},
	)

	LedgerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_ledger_transitions_total",
			Help: "Applied transaction status changes",
		},
		[]string{"type", "to"},
	)

	StalePending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallet_stale_pending_transactions",
			Help: "Gateway-backed transactions found PENDING past the sweep threshold",
		},
	)
)
