// Package metrics holds the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeliveriesAttempted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abitbot_deliveries_attempted_total",
		Help: "Fan-out deliveries attempted.",
	})
	DeliveriesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abitbot_deliveries_failed_total",
		Help: "Fan-out deliveries that failed and were skipped.",
	})
	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abitbot_events_created_total",
		Help: "Events committed through the creation flow.",
	})
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abitbot_registrations_total",
		Help: "Successful event registrations.",
	})
	CheckIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abitbot_checkins_total",
		Help: "Successful attendance check-ins.",
	})
	NewsItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abitbot_news_items_total",
		Help: "News items taken off the stream.",
	})
)
