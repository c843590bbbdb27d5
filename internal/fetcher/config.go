package fetcher

import "time"

// Default configuration values.
const (
	defaultBaseDelay      = 500 * time.Millisecond
	defaultBackoffStep    = 2 * time.Second
	defaultMaxAttempts    = 5
	defaultRequestTimeout = 30 * time.Second
)

// Config holds fetcher configuration.
type Config struct {
	// BaseDelay is waited before every network attempt, retries included,
	// to pace the request rate.
	BaseDelay time.Duration `yaml:"base_delay"`
	// BackoffStep scales the extra delay per attempt after a rate-limit
	// response.
	BackoffStep time.Duration `yaml:"backoff_step"`
	// MaxAttempts caps attempts for a rate-limited URL.
	MaxAttempts int `yaml:"max_attempts"`
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WithDefaults returns a copy of the config with default values applied for
// zero-value fields.
func (c Config) WithDefaults() Config {
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.BackoffStep <= 0 {
		c.BackoffStep = defaultBackoffStep
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c
}
