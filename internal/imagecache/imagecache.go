// Package imagecache provides the in-memory byte cache backing the image
// loader, built on sturdyc. Besides plain capacity/TTL caching, sturdyc
// gives the loader stampede protection: concurrent fetches for the same key
// collapse into one upstream request.
package imagecache

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// FetchFn loads image bytes from the source of truth on a cache miss.
type FetchFn func(ctx context.Context) ([]byte, error)

// Service is the read-through cache the image loader consumes.
type Service interface {
	GetOrFetch(ctx context.Context, key string, fetch FetchFn) ([]byte, error)
	Delete(ctx context.Context, key string)
}

// Config holds the configuration for the sturdyc-backed image cache.
type Config struct {
	// Capacity defines the maximum number of images the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent
	// access. Must be greater than 0. Default: 64
	NumShards int

	// TTL is the time-to-live for cached images. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	// Default: 10
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired
	// entries. Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for image payloads:
// a modest entry count, since entries are whole encoded images.
func DefaultConfig() Config {
	return Config{
		Capacity:           256,
		NumShards:          64,
		TTL:                time.Hour,
		EvictionPercentage: 10,
	}
}

// Validate checks the configuration values and returns a ConfigError
// describing the first invalid field.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
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

// sturdycService adapts a sturdyc client to the Service interface.
type sturdycService struct {
	client *sturdyc.Client[[]byte]
}

// New validates cfg and builds the default Service implementation.
func New(cfg Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	return &sturdycService{
		client: sturdyc.New[[]byte](
			cfg.Capacity,
			cfg.NumShards,
			cfg.TTL,
			cfg.EvictionPercentage,
			options...,
		),
	}, nil
}

func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetch FetchFn) ([]byte, error) {
	return s.client.GetOrFetch(ctx, key, sturdyc.FetchFn[[]byte](fetch))
}

func (s *sturdycService) Delete(_ context.Context, key string) {
	s.client.Delete(key)
}
