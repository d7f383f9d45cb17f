// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and integrates with the Fiber admin server.
//
// # Correlation
//
// Two helpers attach correlation fields to log entries: WithRunID tags every
// entry belonging to one reconciliation run, and WithRayID extracts the
// request id from a Fiber context so admin-server logs can be traced per
// request.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Service started")
//
//	// In a pipeline run:
//	l := logger.WithRunID(log, runID)
//	l.Error("Run failed", zap.Error(err))
package logger
