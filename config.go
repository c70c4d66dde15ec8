package ccoord

import (
	"fmt"
	"time"
)

// RetryConfig tunes the backoff schedule applied to every lease store call.
//
// Retries use decorrelated jitter backoff. Once Shutdown is called, retry
// loops abort after their current attempt regardless of the remaining
// schedule.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per store call (first try
	// included). Default: 5.
	MaxAttempts int `yaml:"maxAttempts"`

	// BaseBackoff is the initial delay between attempts. Default: 50ms.
	BaseBackoff time.Duration `yaml:"baseBackoff"`

	// MaxBackoff caps the jittered delay. Default: 2s.
	MaxBackoff time.Duration `yaml:"maxBackoff"`

	// Multiplier controls backoff growth. Values below 1.0 fall back to the
	// default. Default: 2.0.
	Multiplier float64 `yaml:"multiplier"`
}

// Config is the configuration for the Coordinator.
//
// All duration fields accept standard Go duration strings like "20s", "5m"
// when unmarshalled from YAML.
type Config struct {
	// LeaseDuration is the time window after which an unrenewed lease is
	// considered expired and eligible for takeover by another subscriber.
	// Default: 20 seconds.
	LeaseDuration time.Duration `yaml:"leaseDuration"`

	// RefreshInterval is how often the background sweep renews held leases
	// and re-attempts unheld ones. Must be strictly smaller than
	// LeaseDuration to leave margin for renewal latency and retries before
	// expiry. Default: LeaseDuration / 2.
	RefreshInterval time.Duration `yaml:"refreshInterval"`

	// OperationTimeout bounds a single lease store attempt (one network
	// round-trip, not the whole retry schedule). Default: 10 seconds.
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// Retry tunes the per-call backoff schedule.
	Retry RetryConfig `yaml:"retry"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		LeaseDuration:    20 * time.Second,
		RefreshInterval:  10 * time.Second,
		OperationTimeout: 10 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseBackoff: 50 * time.Millisecond,
			MaxBackoff:  2 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// RefreshInterval defaults to half the (possibly defaulted) LeaseDuration so
// a lease always survives at least one failed renewal cycle.
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.LeaseDuration == 0 {
		cfg.LeaseDuration = defaults.LeaseDuration
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = cfg.LeaseDuration / 2
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if cfg.Retry.BaseBackoff == 0 {
		cfg.Retry.BaseBackoff = defaults.Retry.BaseBackoff
	}
	if cfg.Retry.MaxBackoff == 0 {
		cfg.Retry.MaxBackoff = defaults.Retry.MaxBackoff
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = defaults.Retry.Multiplier
	}
}

// Validate checks configuration constraints and returns an error for invalid
// values.
//
// Hard validation rules:
//   - LeaseDuration > 0
//   - 0 < RefreshInterval < LeaseDuration (renewal must run before expiry)
//   - OperationTimeout > 0
//   - Retry.MaxAttempts >= 1
//   - Retry.BaseBackoff <= Retry.MaxBackoff
func (cfg *Config) Validate() error {
	if cfg.LeaseDuration <= 0 {
		return fmt.Errorf("LeaseDuration must be > 0, got %v", cfg.LeaseDuration)
	}

	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("RefreshInterval must be > 0, got %v", cfg.RefreshInterval)
	}

	if cfg.RefreshInterval >= cfg.LeaseDuration {
		return fmt.Errorf(
			"RefreshInterval (%v) must be < LeaseDuration (%v) so renewal runs before the lease expires",
			cfg.RefreshInterval, cfg.LeaseDuration,
		)
	}

	if cfg.OperationTimeout <= 0 {
		return fmt.Errorf("OperationTimeout must be > 0, got %v", cfg.OperationTimeout)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("Retry.MaxAttempts must be >= 1, got %d", cfg.Retry.MaxAttempts)
	}

	if cfg.Retry.BaseBackoff > cfg.Retry.MaxBackoff {
		return fmt.Errorf(
			"Retry.BaseBackoff (%v) must be <= Retry.MaxBackoff (%v)",
			cfg.Retry.BaseBackoff, cfg.Retry.MaxBackoff,
		)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for
// non-recommended values. Called after Validate() once a logger is available.
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	// A refresh interval close to the lease duration leaves little margin
	// for renewal retries before expiry.
	if cfg.RefreshInterval > cfg.LeaseDuration*2/3 {
		logger.Warn(
			"RefreshInterval leaves little renewal margin before lease expiry",
			"refreshInterval", cfg.RefreshInterval,
			"leaseDuration", cfg.LeaseDuration,
			"recommended", cfg.LeaseDuration/2,
		)
	}

	if cfg.Retry.MaxBackoff > cfg.RefreshInterval {
		logger.Warn(
			"Retry.MaxBackoff exceeds RefreshInterval, one slow retry schedule may delay the next sweep",
			"maxBackoff", cfg.Retry.MaxBackoff,
			"refreshInterval", cfg.RefreshInterval,
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Timings are much faster than production defaults to enable rapid
// iteration. Use DefaultConfig() for production deployments.
func TestConfig() Config {
	return Config{
		LeaseDuration:    500 * time.Millisecond,
		RefreshInterval:  50 * time.Millisecond,
		OperationTimeout: 2 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseBackoff: 5 * time.Millisecond,
			MaxBackoff:  20 * time.Millisecond,
			Multiplier:  2.0,
		},
	}
}
