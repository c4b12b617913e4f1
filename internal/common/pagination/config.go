// Package pagination implements keyset (cursor) pagination shared by the
// catalog and review listings: sort keys, signed cursor tokens, the
// limit+1 probe algorithm and the PageInfo navigation descriptor.
package pagination

// Config holds pagination configuration settings.
type Config struct {
	DefaultLimit int `yaml:"default_limit"` // Items per page when the request has no limit
	MaxLimit     int `yaml:"max_limit"`     // Larger requested limits are clamped to this value
}

// DefaultConfig returns the default pagination configuration.
// Default values: limit=10, max=100
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 10,
		MaxLimit:     100,
	}
}

// Normalize repairs non-positive or inconsistent values.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if c.MaxLimit <= 0 {
		c.MaxLimit = d.MaxLimit
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	return c
}
