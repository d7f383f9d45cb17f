// Package identity resolves patron primary ids to barcode-bearing records.
//
// The identity system is partitioned into zones, each with its own API key
// and endpoint. Resolution walks the zones in configured order: ids the
// current zone reports as not found are carried into the next zone, ids
// that fail for any other reason are dropped for the run, and resolution
// stops early once nothing is left to carry. Lookups within a zone run
// concurrently under a per-second rate limit.
package identity
