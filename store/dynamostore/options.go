package dynamostore

import (
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defines the interface for caching records read or written by the
// client. Records are immutable once written, so cached entries never go
// stale. Implementations must be thread-safe.
type Cache interface {
	// Get retrieves a value from the cache by key.
	Get(key string) (any, bool)

	// Set stores a value in the cache with the specified key and TTL.
	Set(key string, value any, ttl time.Duration)
}

// NewCache returns an in-memory Cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *gocache.Cache {
	return gocache.New(ttl, 2*ttl)
}

// clientOptions holds configuration options for the client.
type clientOptions struct {
	logger   *slog.Logger
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
}

// Option is a functional option for configuring the Client.
type Option func(*clientOptions)

// WithLogger configures the client with a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithCache configures the client with a cache implementation and the TTL
// used for entries it adds. If cache is nil, caching will be disabled.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(opts *clientOptions) {
		opts.cache = cache
		opts.cacheTTL = ttl
	}
}

// WithClock sets the clock used to stamp write receipts.
func WithClock(now func() time.Time) Option {
	return func(opts *clientOptions) {
		opts.now = now
	}
}

// defaultOptions returns the default configuration options.
func defaultOptions() *clientOptions {
	return &clientOptions{
		logger: nil, // No default logger
		cache:  nil, // No default cache
		now:    time.Now,
	}
}

// applyOptions applies the given options to the client options.
func applyOptions(opts *clientOptions, options []Option) {
	for _, option := range options {
		option(opts)
	}
}
