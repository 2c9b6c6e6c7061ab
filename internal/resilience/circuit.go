package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// BreakerState is the availability state of one source.
type BreakerState int

const (
	// BreakerClosed is the normal state: calls flow through.
	BreakerClosed BreakerState = iota
	// BreakerOpen suspends the source: calls fail immediately.
	BreakerOpen
	// BreakerHalfOpen lets a single probe call test recovery.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned when a source is suspended after repeated
// failures.
var ErrBreakerOpen = eris.New("resilience: source suspended after repeated failures")

// BreakerConfig tunes a source breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that
	// suspends the source. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the source stays suspended before a probe
	// call is allowed. Default: 30s.
	ResetTimeout time.Duration

	// ShouldTrip decides which errors count toward the threshold. Nil
	// means every error except auth: a revoked key aborts the run anyway
	// and says nothing about the source's availability.
	ShouldTrip func(err error) bool
}

// DefaultBreakerConfig returns the per-source defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// Breaker suspends a source adapter that keeps failing, so a fetch loop
// (and later runs in the same process) stop hammering it. One breaker per
// adapter instance; safe for concurrent use.
type Breaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time

	// now is swapped out by tests.
	now func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{cfg: cfg, state: BreakerClosed, now: time.Now}
}

// State returns the current state, accounting for an elapsed reset
// timeout.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}

// BreakVal runs fn through the breaker. A suspended source returns
// ErrBreakerOpen without calling fn.
func BreakVal[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
			b.state = BreakerHalfOpen
			return nil // probe
		}
		return ErrBreakerOpen
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	trips := b.cfg.ShouldTrip
	if trips == nil {
		trips = func(e error) bool { return e != nil && !IsAuth(e) }
	}

	if err == nil || !trips(err) {
		b.failures = 0
		b.state = BreakerClosed
		return
	}

	b.failures++
	b.lastFailure = b.now()
	switch b.state {
	case BreakerHalfOpen:
		// A failed probe suspends the source again.
		b.state = BreakerOpen
	case BreakerClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.state = BreakerOpen
		}
	}
}
