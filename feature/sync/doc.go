// Package sync is the reconciliation engine. One run fetches active
// bookings, drops the ones already recorded in the idempotency cache,
// resolves unknown patrons through the identity zones, registers them as
// visitors, creates a pre-registration per booking, and records the results.
//
// Failures are isolated per patron and per booking: a run only fails as a
// whole when the booking fetch fails entirely or the final appointment
// write fails. Everything that could not be completed simply resurfaces on
// the next run.
package sync
