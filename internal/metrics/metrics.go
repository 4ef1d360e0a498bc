// Package metrics holds the Prometheus instruments used by the API. All
// collectors are registered with the default registry, so serving
// promhttp.Handler() is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RSVP outcome labels
const (
	OutcomeAccepted    = "accepted"
	OutcomeInvalid     = "invalid"
	OutcomeDuplicate   = "duplicate"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

var (
	RSVPSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsvp_submissions_total",
			Help: "RSVP submissions by outcome.",
		}, []string{"outcome"})

	AdminLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_logins_total",
			Help: "Admin login attempts by result (success, failure).",
		}, []string{"result"})

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guest_store_errors_total",
			Help: "Storage backend failures by operation.",
		}, []string{"operation"})

	GuestsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "guests_stored",
			Help: "Number of guest records seen on the last full read.",
		})

	CleanupRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_records_removed_total",
			Help: "Expired records removed by the cleanup job, by task.",
		}, []string{"task"})
)

func init() {
	prometheus.MustRegister(
		RSVPSubmissionsTotal,
		AdminLoginsTotal,
		StoreErrorsTotal,
		GuestsStored,
		CleanupRemovedTotal,
	)
}
