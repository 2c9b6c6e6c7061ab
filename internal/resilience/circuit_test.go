package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(threshold int, reset time.Duration) (*Breaker, *time.Time) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(BreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreakerClosedPassesThrough(t *testing.T) {
	b, _ := testBreaker(3, time.Minute)

	calls := 0
	val, err := BreakVal(context.Background(), b, func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 1, calls)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := testBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := BreakVal(context.Background(), b, func(context.Context) (int, error) {
			return 0, errors.New("boom")
		})
		require.Error(t, err)
	}
	assert.Equal(t, BreakerOpen, b.State())

	// A suspended source is not called at all.
	_, err := BreakVal(context.Background(), b, func(context.Context) (int, error) {
		t.Fatal("must not be called while suspended")
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b, _ := testBreaker(3, time.Minute)

	fail := func(context.Context) (int, error) { return 0, errors.New("boom") }
	ok := func(context.Context) (int, error) { return 1, nil }

	_, _ = BreakVal(context.Background(), b, fail)
	_, _ = BreakVal(context.Background(), b, fail)
	_, err := BreakVal(context.Background(), b, ok)
	require.NoError(t, err)

	// Two more failures stay under the threshold again.
	_, _ = BreakVal(context.Background(), b, fail)
	_, _ = BreakVal(context.Background(), b, fail)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerProbeAfterResetTimeout(t *testing.T) {
	b, now := testBreaker(1, time.Minute)

	_, _ = BreakVal(context.Background(), b, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.Equal(t, BreakerOpen, b.State())

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, BreakerHalfOpen, b.State())

	// A successful probe closes the breaker.
	val, err := BreakVal(context.Background(), b, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, val)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerFailedProbeSuspendsAgain(t *testing.T) {
	b, now := testBreaker(1, time.Minute)

	fail := func(context.Context) (int, error) { return 0, errors.New("boom") }
	_, _ = BreakVal(context.Background(), b, fail)
	*now = now.Add(2 * time.Minute)

	_, err := BreakVal(context.Background(), b, fail)
	require.Error(t, err)
	assert.Equal(t, BreakerOpen, b.State())

	// And the next call is rejected without running.
	_, err = BreakVal(context.Background(), b, func(context.Context) (int, error) {
		t.Fatal("must not be called")
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestBreakerAuthErrorsDoNotTrip(t *testing.T) {
	b, _ := testBreaker(1, time.Minute)

	_, err := BreakVal(context.Background(), b, func(context.Context) (int, error) {
		return 0, NewAuthError("apollo", errors.New("revoked key"))
	})
	require.Error(t, err)
	assert.Equal(t, BreakerClosed, b.State(), "auth failures abort the run, they do not suspend the source")
}
