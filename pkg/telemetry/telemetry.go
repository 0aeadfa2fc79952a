// Package telemetry provides Prometheus instrumentation for the
// baitline engine.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TurnsTotal counts handled turns by the strategy chosen.
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "baitline",
			Name:      "turns_total",
			Help:      "Total conversation turns handled, by chosen strategy.",
		},
		[]string{"strategy"},
	)

	// TurnDuration observes end-to-end turn handling latency.
	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "baitline",
			Name:      "turn_duration_seconds",
			Help:      "Turn handling duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// SessionsConfirmedTotal counts sessions crossing the confirmation
	// threshold.
	SessionsConfirmedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "baitline",
			Name:      "sessions_confirmed_total",
			Help:      "Total sessions confirmed as scam engagements.",
		},
	)

	// SessionsActive tracks the sessions currently held in the store.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "baitline",
			Name:      "sessions_active",
			Help:      "Current number of live sessions in the store.",
		},
	)

	// ReportsTotal counts finalization report dispatches by result.
	ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "baitline",
			Name:      "reports_total",
			Help:      "Total finalization report dispatches by result.",
		},
		[]string{"result"},
	)

	// IntelligenceItemsTotal counts newly captured artifacts by category.
	IntelligenceItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "baitline",
			Name:      "intelligence_items_total",
			Help:      "Total extracted intelligence artifacts by category.",
		},
		[]string{"category"},
	)
)

// Report result label values.
const (
	ReportSent    = "sent"
	ReportFailed  = "failed"
	ReportDropped = "dropped"
)

func init() {
	prometheus.MustRegister(
		TurnsTotal,
		TurnDuration,
		SessionsConfirmedTotal,
		SessionsActive,
		ReportsTotal,
		IntelligenceItemsTotal,
	)
}

// Handler returns the Prometheus scrape handler for the /metrics
// endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
