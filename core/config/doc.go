// Package config provides configuration management for the visitor sync
// pipeline.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional .env file, and an optional config.yaml.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: admin HTTP server settings (port, API key)
//   - Database: idempotency cache connection details (sqlite or mysql)
//   - Storage: S3/MinIO credentials for run-report archiving
//   - Log: logging level and format
//   - Scheduler: periodic run interval
//   - Bookings, Identity, Access: upstream system credentials and mappings
//
// Structured settings such as the calendar locations, identity zones, and
// the category and destination mappings can only be expressed in
// config.yaml; everything flat can also be set per key from the
// environment (e.g. SERVER_PORT, BOOKINGS_CLIENT_ID).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
