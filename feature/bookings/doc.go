// Package bookings fetches reservations from the calendar system.
//
// The client exchanges its OAuth credentials for a bearer token once at
// construction, attaches the token to every bookings request, and refreshes
// it exactly once when a request comes back unauthorized. Bookings are
// fetched per configured location; one failing location never aborts the
// whole fetch.
//
// Before the pipeline sees them, raw records pass through FilterAndDedup:
// cancelled statuses are dropped, and for duplicate booking ids the first
// occurrence in fetch order wins. The patron's primary id is extracted from
// a configurable form-answer field.
package bookings
