// Package app wires configuration into a ready engine.
package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"marketreport/internal/config"
	"marketreport/internal/engine"
	"marketreport/internal/httpx"
	"marketreport/internal/logger"
	"marketreport/internal/metrics"
	"marketreport/internal/provider"
	"marketreport/internal/provider/ratelimit"
	"marketreport/internal/provider/yahoo"
	"marketreport/internal/workpool"
)

// Logger builds the process logger from cfg.
func Logger(cfg config.Log) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.Level, Format: cfg.Format, Output: cfg.Output})
}

// NewYahoo builds the Yahoo client behind an HTTP client that keeps cookies.
// Each request is bounded by the market timeout ceiling.
func NewYahoo(cfg config.Config) *yahoo.Client {
	_, limit := cfg.Market.Timeouts()
	httpClient := httpx.New(limit)
	if cfg.Yahoo.UserAgent != "" {
		httpClient.UserAgent = cfg.Yahoo.UserAgent
	}
	opts := []yahoo.ClientOption{
		yahoo.WithHTTPClient(httpClient),
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithNewsURL(cfg.Yahoo.NewsURL),
		yahoo.WithRetries(cfg.Yahoo.Retries),
		yahoo.WithHeader(http.Header{"Accept-Language": []string{"en-US,en;q=0.9"}}),
	}
	if cfg.Yahoo.CookieURL != "" {
		opts = append(opts, yahoo.WithCrumb(cfg.Yahoo.CookieURL))
	}
	return yahoo.NewClient(opts...)
}

// NewSource returns the rate limited market-data source.
func NewSource(cfg config.Config) provider.Source {
	return ratelimit.New(NewYahoo(cfg), cfg.Yahoo.MaxRequestsPerMinute, cfg.Yahoo.Burst)
}

// NewEngine builds an engine over src with a worker pool sized from cfg.
// Metrics are registered on reg when it is not nil.
func NewEngine(cfg config.Config, src provider.Source, log zerolog.Logger, reg prometheus.Registerer) *engine.Engine {
	def, limit := cfg.Market.Timeouts()
	opts := []engine.Option{engine.WithLogger(log)}
	if reg != nil {
		opts = append(opts, engine.WithMetrics(metrics.New(reg)))
	}
	return engine.New(src, workpool.New(cfg.Market.Workers), engine.Config{
		TimeoutDefault: def,
		TimeoutMax:     limit,
	}, opts...)
}

// DefaultRequest returns a request for symbol using the configured period,
// interval and news count.
func DefaultRequest(cfg config.Market, symbol string) engine.Request {
	return engine.Request{
		Symbol:    symbol,
		Period:    cfg.Period,
		Interval:  cfg.Interval,
		NewsCount: cfg.NewsCount,
	}
}

// RequestTimeout is the per-request budget for transports.
func RequestTimeout(cfg config.Server) time.Duration {
	return time.Duration(cfg.RequestTimeoutSec) * time.Second
}
