// Package database handles connections to the idempotency cache database.
//
// It provides a wrapper around GORM to configure either a local SQLite file
// (the default, matching the single-writer discipline of the pipeline) or a
// MySQL server for deployments that want a shared cache.
//
// Duplicate-key errors are translated to gorm.ErrDuplicatedKey via GORM's
// TranslateError option, so the cache store can distinguish a strict-insert
// constraint violation from other failures without driver-specific checks.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
