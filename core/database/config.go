package database

import "fmt"

// Config holds configuration for the cache database connection.
type Config struct {
	// Driver is the database driver (sqlite, mysql).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Path is the database file path (sqlite only).
	Path string `mapstructure:"path" default:"cache.db"`
	// Host is the database host (mysql only).
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port (mysql only).
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user (mysql only).
	User string `mapstructure:"user" default:"root"`
	// Password is the database password (mysql only).
	Password string `mapstructure:"password" default:""`
	// Name is the database name (mysql only).
	Name string `mapstructure:"name" default:"visitor_sync"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Validate checks that the configured driver is supported and that the
// driver-specific settings are present.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("database: path is required for the sqlite driver")
		}
	case DriverMySQL:
		if c.Host == "" || c.Name == "" {
			return fmt.Errorf("database: host and name are required for the mysql driver")
		}
	default:
		return fmt.Errorf("database: unsupported driver %q (expected sqlite or mysql)", c.Driver)
	}
	return nil
}
