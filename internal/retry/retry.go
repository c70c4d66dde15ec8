// Package retry executes lease-store operations with jittered backoff and a
// live-predicate gate used to bound shutdown latency.
package retry

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"
)

// ErrAborted is returned when the live predicate turned false (coordinator
// shutdown) before the retry schedule completed. The last operation error is
// wrapped alongside it.
var ErrAborted = errors.New("retry aborted")

// Default retry tuning, applied by Config.applyDefaults.
const (
	DefaultMaxAttempts = 5
	DefaultBaseBackoff = 50 * time.Millisecond
	DefaultMaxBackoff  = 2 * time.Second
	DefaultMultiplier  = 2.0
)

// Config tunes the retry schedule.
//
// Zero values are replaced with package defaults. Seed enables a
// deterministic jitter source for tests; production should leave it zero.
type Config struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Multiplier  float64
	Seed        int64
}

func (cfg *Config) applyDefaults() {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = DefaultMultiplier
	}
}

// Executor runs operations under the configured retry schedule.
//
// The live predicate is evaluated between a failed attempt and the next one:
// once it reports false, Execute returns ErrAborted instead of sleeping out
// the remaining schedule. The first attempt always runs regardless of the
// predicate, matching the "disable retries on shutdown, don't disable calls"
// contract.
//
// Safe for concurrent use.
type Executor struct {
	cfg  Config
	live func() bool

	mu  sync.Mutex
	rng *rand.Rand // nil when Seed == 0; package-level PRNG is used instead
}

// New creates an executor. A nil live predicate is treated as always-live.
func New(cfg Config, live func() bool) *Executor {
	cfg.applyDefaults()
	if live == nil {
		live = func() bool { return true }
	}

	return &Executor{
		cfg:  cfg,
		live: live,
		rng:  newRetryRNG(cfg.Seed),
	}
}

// Execute runs op until it succeeds, the schedule is exhausted, the context
// is cancelled, or the live predicate turns false.
//
// The returned error is nil on success, the last operation error after
// exhaustion, or a wrapper matching ErrAborted / the context error when the
// loop was cut short.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	var (
		lastErr error
		delay   time.Duration
	)

	for attempt := 1; ; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt >= e.cfg.MaxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, lastErr)
		}

		if !e.live() {
			return fmt.Errorf("%w: %w", ErrAborted, lastErr)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", err, lastErr)
		}

		delay = e.nextBackoff(delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ctx.Err(), lastErr)
		case <-time.After(delay):
		}
	}
}

// nextBackoff computes the next jittered delay from the previous one.
func (e *Executor) nextBackoff(prev time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	return jitterBackoff(prev, e.cfg.BaseBackoff, e.cfg.Multiplier, e.cfg.MaxBackoff, e.rng)
}

// jitterBackoff implements decorrelated jitter backoff ("Full Jitter" variant) with a cap.
// See: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
//
// Given previous delay (prev), computes next delay as:
//
//	next = min(cap, base + rand.Intn(int(float64(prev)*multiplier-base))) with guards
//
// Behavior:
//   - If prev <= 0, start from base
//   - Multiplier <= 1.0 falls back to 1.0 (no growth)
//   - Cap <= base returns base
func jitterBackoff(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}

	if prev <= 0 {
		if capDur > 0 && base > capDur {
			return capDur
		}

		return base
	}
	maxDuration := time.Duration(float64(prev)*mult) - base
	if maxDuration <= 0 {
		maxDuration = base
	}
	// determine jitter source
	var jitter int64
	if rng != nil {
		jitter = rng.Int64N(int64(maxDuration))
	} else {
		jitter = rand.Int64N(int64(maxDuration)) //nolint:gosec // non-crypto backoff jitter
	}
	next := base + time.Duration(jitter)
	if capDur > 0 && next > capDur {
		return capDur
	}

	return next
}

// newRetryRNG returns a deterministic RNG only when a non-zero seed is provided.
// When seed == 0 it returns nil so callers can use the package-level PRNG instead.
// This keeps production jitter inexpensive and avoids hidden time-based variability.
//
//nolint:gosec
func newRetryRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	s2 := s1 ^ 0x9e3779b97f4a7c15

	return rand.New(rand.NewPCG(s1, s2))
}
