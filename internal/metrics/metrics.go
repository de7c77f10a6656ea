// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvoicesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sparkbridge_invoices_created_total",
		Help: "Invoices created against the settlement backend.",
	})

	PaymentsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparkbridge_payments_sent_total",
		Help: "Outgoing payment attempts by terminal outcome.",
	}, []string{"outcome"})

	QuoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparkbridge_quote_requests_total",
		Help: "Quote requests by result.",
	}, []string{"result"})

	EventsBridged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sparkbridge_events_bridged_total",
		Help: "Incoming payment events fanned out to consumers.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sparkbridge_events_dropped_total",
		Help: "Events dropped because a consumer buffer was full.",
	})

	Resubscribes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sparkbridge_backend_resubscribes_total",
		Help: "Reconnections to the backend event stream.",
	})

	StreamConsumers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sparkbridge_stream_consumers",
		Help: "Currently attached event stream consumers.",
	})

	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparkbridge_rpc_requests_total",
		Help: "RPC requests by method and status code.",
	}, []string{"method", "code"})
)
