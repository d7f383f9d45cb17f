package access

import (
	"fmt"
	"strings"
)

// Config holds configuration for the access-control system client.
type Config struct {
	// Username and Password authenticate the login call.
	Username string `mapstructure:"username" default:""`
	Password string `mapstructure:"password" default:""`
	// APIRoot is the base URL every endpoint path is appended to.
	APIRoot string `mapstructure:"api_root" default:""`
	// LoginEndpoint exchanges credentials for a session token.
	LoginEndpoint string `mapstructure:"login_endpoint" default:"/login"`
	// CreateVisitorEndpoint registers a new visitor.
	CreateVisitorEndpoint string `mapstructure:"create_visitor_endpoint" default:"/visitor/create"`
	// UniqueIDEndpoint looks up an existing visitor by unique id.
	UniqueIDEndpoint string `mapstructure:"unique_id_endpoint" default:"/visitor/uniqueid"`
	// CreatePreregEndpoint creates a scheduled-visit record.
	CreatePreregEndpoint string `mapstructure:"create_prereg_endpoint" default:"/prereg/create"`
	// DestinationsEndpoint lists the destinations known to the system.
	DestinationsEndpoint string `mapstructure:"destinations_endpoint" default:"/destinations"`
	// CategoryMapping maps identity-system user groups to visitor
	// categories. Unmapped groups fall back to DefaultCategory.
	CategoryMapping map[string]string `mapstructure:"category_mapping"`
	// DefaultCategory is used when a user group has no mapping.
	DefaultCategory string `mapstructure:"default_category" default:"Visitor"`
	// DestinationMapping maps calendar location ids (as strings) to
	// destination names known to the access-control system.
	DestinationMapping map[string]string `mapstructure:"destination_mapping"`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Validate checks that all required settings are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.APIRoot == "" {
		missing = append(missing, "api_root")
	}
	if len(c.DestinationMapping) == 0 {
		missing = append(missing, "destination_mapping")
	}
	if len(missing) > 0 {
		return fmt.Errorf("access: missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = "Visitor"
	}
	return nil
}
