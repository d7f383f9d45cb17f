package bookings

import (
	"fmt"
	"strings"
)

// Location identifies one bookable location in the calendar system.
type Location struct {
	// Name is the human-readable location name, used in logs only.
	Name string `mapstructure:"name"`
	// ID is the calendar system's location id, passed as the lid query parameter.
	ID int `mapstructure:"id"`
}

// Config holds configuration for the calendar system client.
type Config struct {
	// ClientID is the OAuth client id for the credentials exchange.
	ClientID string `mapstructure:"client_id" default:""`
	// ClientSecret is the OAuth client secret.
	ClientSecret string `mapstructure:"client_secret" default:""`
	// CredentialsEndpoint is the token exchange URL.
	CredentialsEndpoint string `mapstructure:"credentials_endpoint" default:""`
	// BookingsEndpoint is the bookings listing URL.
	BookingsEndpoint string `mapstructure:"bookings_endpoint" default:""`
	// PrimaryIDField is the form-answer field carrying the patron's primary id.
	PrimaryIDField string `mapstructure:"primary_id_field" default:""`
	// Locations is the set of locations whose bookings are synchronized.
	Locations []Location `mapstructure:"locations"`
	// CancelledStatuses are the status labels dropped before dedup.
	CancelledStatuses []string `mapstructure:"cancelled_statuses"`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// defaultCancelledStatuses covers the labels the calendar system uses for
// bookings that will never be honored.
var defaultCancelledStatuses = []string{
	"Cancelled",
	"Cancelled by User",
	"Cancelled by System",
	"Cancelled by Admin",
	"Mediated Denied",
}

// Validate checks that all required settings are present and fills in the
// default cancelled-status labels when none are configured.
func (c *Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if c.CredentialsEndpoint == "" {
		missing = append(missing, "credentials_endpoint")
	}
	if c.BookingsEndpoint == "" {
		missing = append(missing, "bookings_endpoint")
	}
	if c.PrimaryIDField == "" {
		missing = append(missing, "primary_id_field")
	}
	if len(c.Locations) == 0 {
		missing = append(missing, "locations")
	}
	if len(missing) > 0 {
		return fmt.Errorf("bookings: missing required settings: %s", strings.Join(missing, ", "))
	}
	if len(c.CancelledStatuses) == 0 {
		c.CancelledStatuses = defaultCancelledStatuses
	}
	return nil
}
