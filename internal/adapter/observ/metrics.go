package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business counters for the checkout flow, scraped via /metrics.
var (
	OrdersAssembled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_orders_assembled_total",
			Help: "Orders created, by payment method",
		},
		[]string{"method"},
	)

	OrdersCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_orders_cancelled_total",
			Help: "Orders cancelled with stock released",
		},
	)

	PaymentCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_payment_callbacks_total",
			Help: "Gateway callbacks, by verification outcome",
		},
		[]string{"outcome"}, // applied | replay | rejected
	)
)
