package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcomes.
const (
	OutcomeDelivered      = "delivered"
	OutcomeSilenced       = "silenced"
	OutcomeDropped        = "dropped"
	OutcomeDeliveryFailed = "delivery_failed"
)

// Metrics holds the service counters. Registered against an explicit
// registry so tests get isolated instances.
type Metrics struct {
	AlertsIngested   *prometheus.CounterVec
	RoutingDecisions *prometheus.CounterVec
	Acknowledgments  prometheus.Counter
	DeliveryFailures prometheus.Counter
	SweepDeletions   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AlertsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alertrelay_alerts_ingested_total",
			Help: "Alerts ingested, by outcome.",
		}, []string{"outcome"}),
		RoutingDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alertrelay_routing_decisions_total",
			Help: "Routing decisions, by action.",
		}, []string{"action"}),
		Acknowledgments: factory.NewCounter(prometheus.CounterOpts{
			Name: "alertrelay_acknowledgments_total",
			Help: "Alerts acknowledged.",
		}),
		DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "alertrelay_delivery_failures_total",
			Help: "Chat message post or edit failures.",
		}),
		SweepDeletions: factory.NewCounter(prometheus.CounterOpts{
			Name: "alertrelay_sweep_deleted_rows_total",
			Help: "Rows removed by the retention sweep.",
		}),
	}
}
