package entity

import "log/slog"

// Config holds configuration for a Session.
type Config struct {
	// Logger receives session lifecycle and lazy-load events.
	// Default: slog.Default()
	Logger *slog.Logger

	// Strict rejects fetcher results that contain attributes beyond the one
	// requested during a lazy load. A fetcher that over-fetches breaks the
	// one-attribute-at-a-time contract, so the violation surfaces as
	// ErrInternal instead of being silently trimmed.
	// Default (via DefaultConfig): true
	Strict bool
}

// DefaultConfig returns the recommended session configuration.
func DefaultConfig() Config {
	return Config{
		Strict: true,
	}
}

// validate ensures config values are usable.
func (c *Config) validate() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
