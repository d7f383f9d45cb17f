package server

// Config holds configuration for the admin HTTP server.
type Config struct {
	// Enabled controls whether the admin server is started at all.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	// When empty, the admin endpoints are left unprotected.
	ApiKey string `mapstructure:"api_key" default:""`
}
