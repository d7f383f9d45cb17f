package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"visitor-sync/core/database"
	"visitor-sync/core/logger"
	"visitor-sync/core/scheduler"
	"visitor-sync/core/server"
	"visitor-sync/core/storage"
	"visitor-sync/feature/access"
	"visitor-sync/feature/bookings"
	"visitor-sync/feature/identity"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the admin HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the run-report archive (S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the idempotency cache database.
	Database database.Config `mapstructure:"database"`
	// Scheduler holds configuration for the periodic run loop.
	Scheduler scheduler.Config `mapstructure:"scheduler"`
	// Bookings holds configuration for the calendar system client.
	Bookings bookings.Config `mapstructure:"bookings"`
	// Identity holds configuration for the identity-system zones.
	Identity identity.Config `mapstructure:"identity"`
	// Access holds configuration for the access-control system client.
	Access access.Config `mapstructure:"access"`
}

// LoadConfig loads configuration from environment variables, an optional
// .env file, and an optional config.yaml in the given path. Structured
// values (locations, zones, category and destination mappings) can only be
// expressed in the config file; flat values may be overridden per key from
// the environment.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks every partial configuration that declares required keys.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Bookings.Validate(); err != nil {
		return err
	}
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	return c.Access.Validate()
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			// If it's a nested struct, recurse
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		case reflect.Slice, reflect.Map:
			// Structured values have no flat default; they come from the
			// config file alone. Registering an empty string here would
			// shadow the file value with an unparseable default.
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
