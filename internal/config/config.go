// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"Readout/internal/api/middleware"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from .env and environment variables.
type Config struct {
	DatabaseDriver     string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	Port               string `mapstructure:"PORT"`
	RedditBaseURL      string `mapstructure:"REDDIT_BASE_URL"`
	RedditAuthURL      string `mapstructure:"REDDIT_AUTH_URL"`
	RedditClientID     string `mapstructure:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `mapstructure:"REDDIT_CLIENT_SECRET"`
	RedditRefreshToken string `mapstructure:"REDDIT_REFRESH_TOKEN"`
	// RedditAccessToken is a fixed token for development; it bypasses the refresh flow.
	RedditAccessToken string `mapstructure:"REDDIT_ACCESS_TOKEN"`
	UserAgent         string `mapstructure:"USER_AGENT"`
	// APIToken protects the HTTP API when set.
	APIToken string `mapstructure:"API_TOKEN"`
	// AllowedOrigins is a comma separated CORS allow list.
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	// TrustedProxies lists the reverse proxies, as addresses or CIDR ranges,
	// whose forwarding headers name the client.
	TrustedProxies    string `mapstructure:"TRUSTED_PROXIES"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	PageSize          int    `mapstructure:"PAGE_SIZE"`
	RequestsPerMinute int    `mapstructure:"REQUESTS_PER_MINUTE"`
	// RedditRequestsPerMinute throttles calls to the Reddit API.
	RedditRequestsPerMinute int `mapstructure:"REDDIT_REQUESTS_PER_MINUTE"`
	EnrichConcurrency       int `mapstructure:"ENRICH_CONCURRENCY"`
}

var defaults = map[string]any{
	"DATABASE_DRIVER":            "sqlite",
	"DATABASE_URL":               "file:readout.db",
	"PORT":                       "8081",
	"REDDIT_BASE_URL":            "https://oauth.reddit.com",
	"REDDIT_AUTH_URL":            "https://www.reddit.com/api/v1/access_token",
	"REDDIT_CLIENT_ID":           "",
	"REDDIT_CLIENT_SECRET":       "",
	"REDDIT_REFRESH_TOKEN":       "",
	"REDDIT_ACCESS_TOKEN":        "",
	"USER_AGENT":                 "",
	"API_TOKEN":                  "",
	"ALLOWED_ORIGINS":            "",
	"TRUSTED_PROXIES":            "",
	"LOG_LEVEL":                  "info",
	"PAGE_SIZE":                  25,
	"REQUESTS_PER_MINUTE":        60,
	"REDDIT_REQUESTS_PER_MINUTE": 60,
	"ENRICH_CONCURRENCY":         4,
}

// Load reads the optional .env files, then the environment, over the defaults.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// A missing .env file is fine
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration can start the application.
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("USER_AGENT is required by the Reddit API"))
	}
	if c.RedditAccessToken == "" {
		if c.RedditClientID == "" || c.RedditRefreshToken == "" {
			errs = append(errs, errors.New("either REDDIT_ACCESS_TOKEN or REDDIT_CLIENT_ID and REDDIT_REFRESH_TOKEN are required"))
		}
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", c.PageSize))
	}
	if c.RequestsPerMinute < 0 || c.RedditRequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute must not be negative"))
	}
	if _, err := c.Proxies(); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}
	if c.EnrichConcurrency < 1 {
		errs = append(errs, fmt.Errorf("ENRICH_CONCURRENCY must be positive, got %d", c.EnrichConcurrency))
	}
	return errors.Join(errs...)
}

// UsesStaticToken reports whether a fixed access token is configured.
func (c *Config) UsesStaticToken() bool {
	return c.RedditAccessToken != ""
}

// Proxies parses TrustedProxies.
func (c *Config) Proxies() ([]netip.Prefix, error) {
	return middleware.ParseTrustedProxies(c.TrustedProxies)
}

// Origins splits AllowedOrigins.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
