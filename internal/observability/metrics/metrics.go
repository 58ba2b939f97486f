// Package metrics exposes Prometheus instrumentation for the monitoring core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PositionReports counts ingested GPS fixes.
	PositionReports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herdguard_position_reports_total",
		Help: "Total position reports ingested.",
	})

	// DevicesProvisioned counts collars auto-provisioned on first contact.
	DevicesProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herdguard_devices_provisioned_total",
		Help: "Total devices auto-provisioned from unknown hardware IDs.",
	})

	// AlertsCreated counts alert creations by type.
	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herdguard_alerts_created_total",
		Help: "Total alerts created, by alert type.",
	}, []string{"type"})

	// AlertsDismissed counts alert dismissals by type.
	AlertsDismissed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herdguard_alerts_dismissed_total",
		Help: "Total alerts dismissed, by alert type.",
	}, []string{"type"})

	// AlertsEscalated counts escalations of aged geofence alerts.
	AlertsEscalated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herdguard_alerts_escalated_total",
		Help: "Total alerts escalated to urgent severity.",
	})

	// PushSends counts attempted push deliveries per recipient.
	PushSends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herdguard_push_sends_total",
		Help: "Total push notification sends attempted.",
	})

	// PushFailures counts failed push deliveries per recipient.
	PushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herdguard_push_failures_total",
		Help: "Total push notification sends that failed.",
	})

	// RealtimeSubscribers tracks currently connected realtime stream clients.
	RealtimeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "herdguard_realtime_subscribers",
		Help: "Currently connected realtime alert stream subscribers.",
	})
)
