// Package cache is the durable idempotency store for the pipeline.
//
// Two keyed tables make re-runs safe: users maps a patron's primary id to
// the barcode and visitor id registered for them, appointments maps a
// booking id to its pre-registration. The policies are deliberately
// asymmetric: user rows are replaced on conflict (a visitor id can change),
// appointment rows are strict inserts (a duplicate booking id means
// something upstream re-processed a booking it should not have).
package cache
