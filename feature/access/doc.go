// Package access registers visitors and scheduled visits in the
// access-control system.
//
// The client logs in once at construction and carries the session token in
// a request header. Any call that comes back unauthorized triggers exactly
// one re-login and retry; a second rejection is fatal for that call.
//
// Visitor creation is idempotent: the system enforces one visitor per
// unique id (barcode), and when it reports a duplicate the client resolves
// the existing visitor instead of failing. This is what makes pipeline
// re-runs safe after a partial failure.
package access
