package engine

import (
	"context"
	"fmt"
)

// withFallback guards an optional fetch: a source error or panic yields the
// zero value instead of failing the query. Errors caused by ctx ending are
// passed through so the caller can report the deadline.
func withFallback[T any](e *Engine, symbol, part string, fetch func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (v T, err error) {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				v, err = zero, nil
				e.degrade(symbol, part, fmt.Errorf("%v", r))
			}
		}()

		v, err = fetch(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return v, ctx.Err()
		}
		e.degrade(symbol, part, err)
		var zero T
		return zero, nil
	}
}

func (e *Engine) degrade(symbol, part string, err error) {
	e.log.Warn().
		Str("symbol", symbol).
		Str("part", part).
		Err(err).
		Msg("market fetch failed")
	e.metrics.FetchDegraded(part)
}
