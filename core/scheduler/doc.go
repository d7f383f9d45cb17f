// Package scheduler drives periodic invocations of the reconciliation run.
//
// The pipeline itself exposes a single RunOnce entry point and has no
// awareness of scheduling; this package owns the ticker loop and stops it
// on context cancellation. A zero interval degrades to a single run, which
// is what the one-shot command uses.
package scheduler
