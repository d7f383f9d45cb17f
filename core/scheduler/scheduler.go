package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config holds configuration for the run scheduler.
type Config struct {
	// IntervalSeconds is the pause between pipeline runs.
	// Zero (the default) means run once and stop.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"0"`
}

// Interval returns the configured interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Run invokes fn immediately, then repeatedly at the given interval until
// ctx is cancelled. A non-positive interval means run once. Errors from fn
// are logged and never stop the loop; the next tick is relied upon for
// eventual consistency.
func Run(ctx context.Context, interval time.Duration, log *zap.Logger, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Error("Run failed", zap.Error(err))
	}

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler stopped")
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Error("Run failed", zap.Error(err))
			}
		}
	}
}
