// Package ratelimit enforces minimum spacing between outbound requests and
// adapts the delay to observed throttling. Both collection pipelines own
// their own Governor; state is never shared across processes or persisted.
package ratelimit

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrExhausted is returned when a caller has reported more consecutive
// failures than the configured retry budget allows.
var ErrExhausted = errors.New("retry budget exhausted")

// Default configuration values.
const (
	DefaultMinInterval = 1 * time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultBackoffMult = 2.0
	DefaultMaxRetries  = 3
	DefaultJitter      = 500 * time.Millisecond
)

// Config controls Governor behavior. Zero values fall back to defaults.
type Config struct {
	MinInterval time.Duration // baseline spacing between permitted requests
	MaxDelay    time.Duration // backoff ceiling
	BackoffMult float64       // delay multiplier per failure
	MaxRetries  int           // consecutive failures allowed before Exhausted
	Jitter      time.Duration // random extra delay added to each wait; negative disables
}

// Governor paces outbound requests. Throttle blocks until at least the
// current delay has elapsed since the last permitted request; OnFailure
// grows the delay toward the ceiling and counts against the retry budget;
// OnSuccess resets both.
type Governor struct {
	mu          sync.Mutex
	minInterval time.Duration
	maxDelay    time.Duration
	backoffMult float64
	maxRetries  int
	jitter      time.Duration

	delay     time.Duration // current spacing, >= minInterval
	lastReq   time.Time
	failures  int // consecutive failures since last success
	randInt63 func(int64) int64
}

// New creates a Governor from cfg, filling unset fields with defaults.
func New(cfg Config) *Governor {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.BackoffMult <= 1 {
		cfg.BackoffMult = DefaultBackoffMult
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = DefaultJitter
	} else if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return &Governor{
		minInterval: cfg.MinInterval,
		maxDelay:    cfg.MaxDelay,
		backoffMult: cfg.BackoffMult,
		maxRetries:  cfg.MaxRetries,
		jitter:      cfg.Jitter,
		delay:       cfg.MinInterval,
		randInt63:   rand.Int63n,
	}
}

// Throttle blocks until the current delay has elapsed since the previous
// permitted request, or returns ctx.Err() if the context is cancelled
// during the wait.
func (g *Governor) Throttle(ctx context.Context) error {
	g.mu.Lock()
	wait := g.delay - time.Since(g.lastReq)
	if g.jitter > 0 {
		wait += time.Duration(g.randInt63(int64(g.jitter)))
	}
	g.mu.Unlock()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	g.mu.Lock()
	g.lastReq = time.Now()
	g.mu.Unlock()
	return nil
}

// OnFailure records a throttling or transient-error signal. The next delay
// grows multiplicatively up to the ceiling. Returns ErrExhausted once the
// consecutive-failure count exceeds the retry budget, nil otherwise.
func (g *Governor) OnFailure() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures++
	next := time.Duration(float64(g.delay) * g.backoffMult)
	if next > g.maxDelay {
		next = g.maxDelay
	}
	g.delay = next

	if g.failures > g.maxRetries {
		return ErrExhausted
	}
	return nil
}

// OnSuccess resets the backoff toward the configured baseline.
func (g *Governor) OnSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = 0
	g.delay = g.minInterval
}

// ResetBudget clears the consecutive-failure count without touching the
// adapted delay. Callers use it after abandoning one unit of work so the
// next unit gets a fresh retry budget while the pacing stays cautious.
func (g *Governor) ResetBudget() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = 0
}

// Delay returns the current inter-request spacing.
func (g *Governor) Delay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.delay
}

// Exhausted reports whether the retry budget has been exceeded since the
// last success.
func (g *Governor) Exhausted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures > g.maxRetries
}

// Failures returns the consecutive-failure count since the last success.
func (g *Governor) Failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}
