package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the order store counters exposed on /metrics.
type Metrics struct {
	OrdersCreated       prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	RejectedTransitions prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "restopos_orders_created_total",
			Help: "Number of orders accepted by the store.",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "restopos_status_transitions_total",
			Help: "Number of applied status transitions, by target status.",
		}, []string{"to"}),
		RejectedTransitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "restopos_rejected_transitions_total",
			Help: "Number of transition commands rejected as illegal or raced.",
		}),
	}
}
