package ratelimit_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"marketreport/internal/market"
	"marketreport/internal/provider/ratelimit"
)

type countingSource struct{ calls atomic.Int32 }

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Quote(context.Context, string) (market.Snapshot, error) {
	c.calls.Add(1)
	return market.Snapshot{"regularMarketPrice": 1.0}, nil
}

func (c *countingSource) History(context.Context, string, string, string) (*market.History, error) {
	c.calls.Add(1)
	return &market.History{}, nil
}

func (c *countingSource) News(context.Context, string, int) (any, error) {
	c.calls.Add(1)
	return []any{}, nil
}

func TestSource_PassesThroughWithinBurst(t *testing.T) {
	t.Parallel()

	// Arrange
	inner := &countingSource{}
	src := ratelimit.New(inner, 60, 3)

	// Act
	_, err := src.Quote(t.Context(), "A")
	require.NoError(t, err)
	_, err = src.History(t.Context(), "A", "1y", "1d")
	require.NoError(t, err)
	_, err = src.News(t.Context(), "A", 1)
	require.NoError(t, err)

	// Assert
	require.Equal(t, int32(3), inner.calls.Load())
	require.Equal(t, "counting", src.Name())
}

func TestSource_WaitHonorsContext(t *testing.T) {
	t.Parallel()

	// Arrange: one token per minute, already spent
	inner := &countingSource{}
	src := ratelimit.New(inner, 1, 1)
	_, err := src.Quote(t.Context(), "A")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	// Act
	start := time.Now()
	_, err = src.Quote(ctx, "A")

	// Assert: the wait uses the whole deadline and the inner source is not reached
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	require.Equal(t, int32(1), inner.calls.Load())
}

func TestSource_CanceledBeforeWait(t *testing.T) {
	t.Parallel()

	inner := &countingSource{}
	src := ratelimit.New(inner, 60, 3)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := src.History(ctx, "A", "1y", "1d")
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, inner.calls.Load())
}

func TestPerMinute(t *testing.T) {
	t.Parallel()

	require.Equal(t, rate.Inf, ratelimit.PerMinute(0, 1).Limit())
	require.InDelta(t, 2.0, float64(ratelimit.PerMinute(120, 1).Limit()), 1e-9)
	require.Equal(t, 1, ratelimit.PerMinute(10, 0).Burst())
}

func TestSource_NilLimiter(t *testing.T) {
	t.Parallel()

	inner := &countingSource{}
	src := &ratelimit.Source{P: inner}
	for i := 0; i < 5; i++ {
		_, err := src.Quote(t.Context(), "A")
		require.NoError(t, err)
	}
	require.Equal(t, int32(5), inner.calls.Load())
}
