// Package config provides process configuration for the pCloudy MCP server.
//
// Configuration is sourced from the environment, with an optional .env file
// loaded first. Credentials are required; everything else has a default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultBaseURL is the pCloudy public API base URL.
	DefaultBaseURL = "https://device.pcloudy.com/api"

	// DefaultPlatform is the platform used when a tool call omits one.
	DefaultPlatform = "android"

	// DefaultDuration is the booking duration in minutes used when a tool
	// call omits one.
	DefaultDuration = 10

	// DefaultPort is the listening port for the HTTP transport mode.
	DefaultPort = 8000

	// RequestTimeout is the overall per-request timeout applied uniformly
	// by the HTTP transport.
	RequestTimeout = 300 * time.Second

	// TokenRefreshThreshold is how old an auth token may be before it is
	// reacquired.
	TokenRefreshThreshold = 3600 * time.Second
)

// Config holds the process configuration for the pCloudy MCP server.
type Config struct {
	// Username is the pCloudy account username (email).
	Username string

	// APIKey is the pCloudy API key paired with Username.
	APIKey string

	// BaseURL is the pCloudy API base URL.
	BaseURL string

	// Port is the listening port for the HTTP transport mode.
	Port int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present, without overriding variables that
// are already set.
//
// Returns:
//   - *Config: The loaded configuration
//   - error: If a required credential variable is missing
func Load() (*Config, error) {
	_ = godotenv.Load()

	username := os.Getenv("PCLOUDY_USERNAME")
	if username == "" {
		return nil, fmt.Errorf("PCLOUDY_USERNAME is not set")
	}

	apiKey := os.Getenv("PCLOUDY_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("PCLOUDY_API_KEY is not set")
	}

	baseURL := os.Getenv("PCLOUDY_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	port := DefaultPort
	if p := os.Getenv("PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return nil, fmt.Errorf("invalid PORT value %q", p)
		}
		port = parsed
	}

	return &Config{
		Username: username,
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Port:     port,
	}, nil
}
