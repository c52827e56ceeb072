package client

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the configuration shared by client implementations.
type Config struct {
	// Host is the service host, with or without scheme
	// ("cubes.example.com" or "https://cubes.example.com").
	// Required.
	Host string

	// Scheme is the URL scheme used when Host carries none.
	// Must be "http" or "https". Default: "https"
	Scheme string

	// Token is an initial session token. Optional; Login replaces it.
	Token string

	// PageSize is the default limit for paginated operations when the
	// caller passes a non-positive limit. Default: 10
	PageSize int

	// Workers is the worker pool size of the asynchronous facade.
	// Default: 5
	Workers int

	// Timeout bounds each HTTP request. Zero means no client-side timeout.
	Timeout time.Duration

	// StaticPagination makes paginated operations return fully materialized
	// pages instead of lazy sequences. The asynchronous facade forces this
	// on its wrapped client so promises resolve to complete data.
	StaticPagination bool

	// HTTPClient overrides the transport. If nil, a dedicated client with
	// Timeout applied is used.
	HTTPClient *http.Client

	// Logger receives structured request logs. If nil, logging is disabled.
	Logger *logrus.Logger

	// Metrics receives instrumentation callbacks. If nil, NoopMetrics is
	// used.
	Metrics Metrics
}

// DefaultConfig returns a Config with the defaults described on the fields.
// Host must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		Scheme:   "https",
		PageSize: 10,
		Workers:  5,
		Timeout:  30 * time.Second,
	}
}

// Validate checks the configuration values and returns a ConfigError
// describing the first invalid field.
func (c Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{Field: "Host", Message: "must not be empty"}
	}

	if c.Scheme != "" && c.Scheme != "http" && c.Scheme != "https" {
		return &ConfigError{Field: "Scheme", Message: "must be http or https"}
	}

	if c.PageSize < 0 {
		return &ConfigError{Field: "PageSize", Message: "must be non-negative"}
	}

	if c.Workers < 0 {
		return &ConfigError{Field: "Workers", Message: "must be non-negative"}
	}

	if c.Timeout < 0 {
		return &ConfigError{Field: "Timeout", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
