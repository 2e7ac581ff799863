package main

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketreport/internal/market"
)

type fakeSource struct{}

func (fakeSource) Name() string { return "fake" }

func (fakeSource) Quote(_ context.Context, symbol string) (market.Snapshot, error) {
	return market.Snapshot{"symbol": symbol, "regularMarketPrice": 18.2}, nil
}

func (fakeSource) History(context.Context, string, string, string) (*market.History, error) {
	return &market.History{
		Time:  []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		Close: []float64{18.1, math.NaN()},
	}, nil
}

func (fakeSource) News(context.Context, string, int) (any, error) {
	return nil, errors.New("news unavailable")
}

func TestCollect(t *testing.T) {
	t.Parallel()

	// Act
	d := collect(t.Context(), fakeSource{}, "USD/ZAR", "USDZAR=X", "1y", "1d", 5)

	// Assert
	require.Equal(t, "USDZAR=X", d.Quote["symbol"])
	require.Len(t, d.History, 2)
	require.Equal(t, "2024-01-02T00:00:00+00:00", d.History[0].Time)
	require.InDelta(t, 18.1, *d.History[0].Close, 1e-9)
	require.Nil(t, d.History[1].Close)
	require.Nil(t, d.History[1].Open)
	require.Nil(t, d.News)
	require.Equal(t, map[string]string{"news": "news unavailable"}, d.Errors)
}
