package sync

import "time"

// Report summarizes one reconciliation run. It is logged, kept as the
// last-run state for the admin server, and optionally archived to object
// storage.
type Report struct {
	// RunID correlates the report with the run's log entries.
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Fetched counts active bookings after cancellation filtering and dedup.
	Fetched int `json:"fetched"`
	// AlreadyProcessed counts bookings dropped by the appointment-cache gate.
	AlreadyProcessed int `json:"already_processed"`
	// NewBookings counts bookings that entered the pipeline this run.
	NewBookings int `json:"new_bookings"`

	// PatronsKnown counts distinct patrons satisfied from the cache.
	PatronsKnown int `json:"patrons_known"`
	// PatronsResolved counts distinct patrons resolved via the identity system.
	PatronsResolved int `json:"patrons_resolved"`
	// PatronsUnresolved counts distinct patrons no zone could resolve.
	PatronsUnresolved int `json:"patrons_unresolved"`

	// VisitorsRegistered counts visitor registrations performed this run
	// (including duplicate-fallback lookups that resolved an existing visitor).
	// VisitorsRegistered + RegistrationsFailed == PatronsResolved.
	VisitorsRegistered int `json:"visitors_registered"`
	// RegistrationsFailed counts resolved patrons whose visitor registration
	// failed; their bookings are skipped this run.
	RegistrationsFailed int `json:"registrations_failed"`
	// PreregsCreated counts pre-registrations created this run.
	PreregsCreated int `json:"preregs_created"`
	// BookingsSkipped counts bookings skipped because their patron could
	// not be resolved or registered.
	BookingsSkipped int `json:"bookings_skipped"`

	// Errors lists per-item and run-level error messages.
	Errors []string `json:"errors,omitempty"`
}

func (r *Report) addError(err error) {
	r.Errors = append(r.Errors, err.Error())
}
