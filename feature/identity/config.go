package identity

import (
	"fmt"
	"strings"
)

// Zone is one credential-scoped partition of the identity system. Zones are
// queried in configuration order; a patron not found in one zone is looked
// up in the next.
type Zone struct {
	// Name identifies the zone in logs.
	Name string `mapstructure:"name"`
	// APIKey is the zone's static API key, presumed long-lived.
	APIKey string `mapstructure:"api_key"`
	// UsersEndpoint is the zone's user lookup URL; the primary id is
	// appended as a path segment.
	UsersEndpoint string `mapstructure:"users_endpoint"`
}

// Config holds configuration for the identity resolver.
type Config struct {
	// Zones is the ordered list of identity-system partitions.
	Zones []Zone `mapstructure:"zones"`
	// RateLimit is the maximum number of lookups started per second.
	RateLimit int `mapstructure:"rate_limit" default:"25"`
	// NotFoundCode is the error code the identity system embeds in its
	// error list when a user does not exist in the queried zone.
	NotFoundCode string `mapstructure:"not_found_code" default:"401861"`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Validate checks that at least one fully specified zone is configured.
func (c *Config) Validate() error {
	if len(c.Zones) == 0 {
		return fmt.Errorf("identity: at least one zone is required")
	}
	var missing []string
	for i, z := range c.Zones {
		if z.APIKey == "" {
			missing = append(missing, fmt.Sprintf("zones[%d].api_key", i))
		}
		if z.UsersEndpoint == "" {
			missing = append(missing, fmt.Sprintf("zones[%d].users_endpoint", i))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("identity: missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 25
	}
	if c.NotFoundCode == "" {
		c.NotFoundCode = "401861"
	}
	return nil
}
