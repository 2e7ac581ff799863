package provider

import (
	"context"

	"marketreport/internal/market"
)

// Source is an external market-data feed. Calls may block, fail
// independently and return loosely-typed payloads.
//
//go:generate mockgen -package=engine_test -destination=../engine/mock_source_test.go -source=provider.go Source
type Source interface {
	Name() string
	// Quote returns the current quote snapshot for a canonical symbol.
	Quote(ctx context.Context, symbol string) (market.Snapshot, error)
	// History returns the price table for a period/interval pair (e.g. "1y", "1d").
	History(ctx context.Context, symbol, period, interval string) (*market.History, error)
	// News returns the provider's raw news payload.
	News(ctx context.Context, symbol string, count int) (any, error)
}
