package ratelimit

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"marketreport/internal/market"
	"marketreport/internal/provider"
)

// Source wraps a provider and admits calls through a shared limiter.
// Calls wait for a token until their context ends.
type Source struct {
	P provider.Source
	L *rate.Limiter
}

// PerMinute returns a limiter allowing n requests per minute with the given
// burst. A non-positive n disables limiting.
func PerMinute(n, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), burst)
}

func New(p provider.Source, perMinute, burst int) *Source {
	return &Source{P: p, L: PerMinute(perMinute, burst)}
}

func (s *Source) Name() string { return s.P.Name() }

func (s *Source) Quote(ctx context.Context, symbol string) (market.Snapshot, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.P.Quote(ctx, symbol)
}

func (s *Source) History(ctx context.Context, symbol, period, interval string) (*market.History, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.P.History(ctx, symbol, period, interval)
}

func (s *Source) News(ctx context.Context, symbol string, count int) (any, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.P.News(ctx, symbol, count)
}

// wait blocks until a token is due or ctx ends, in which case the token is
// handed back and ctx's error is returned.
func (s *Source) wait(ctx context.Context) error {
	if s.L == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r := s.L.Reserve()
	if !r.OK() {
		return errors.New("rate limit: burst is zero")
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
