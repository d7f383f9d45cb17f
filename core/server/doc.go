// Package server holds configuration for the admin HTTP server.
//
// The admin server is a thin operational surface over the reconciliation
// pipeline: health, last-run report, manual run trigger, and cache
// maintenance. It is optional; the pipeline itself never depends on it.
package server
