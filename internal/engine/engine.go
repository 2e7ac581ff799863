// Package engine answers market queries: it fetches a quote, a price history
// and news for one instrument under a deadline and assembles a market.Report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"marketreport/internal/coerce"
	"marketreport/internal/fundamentals"
	"marketreport/internal/market"
	"marketreport/internal/news"
	"marketreport/internal/provider"
	"marketreport/internal/symbol"
	"marketreport/internal/trend"
	"marketreport/internal/workpool"
)

const (
	DefaultPeriod    = "1y"
	DefaultInterval  = "1d"
	DefaultNewsCount = 5

	defaultCurrency = "USD"
)

// Config bounds how long a query may wait on the source.
type Config struct {
	TimeoutDefault time.Duration
	TimeoutMax     time.Duration
}

func DefaultConfig() Config {
	return Config{TimeoutDefault: 30 * time.Second, TimeoutMax: 60 * time.Second}
}

// Recorder receives query measurements. internal/metrics implements it.
type Recorder interface {
	ObserveQuery(outcome string, elapsed time.Duration)
	FetchDegraded(part string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveQuery(string, time.Duration) {}
func (nopRecorder) FetchDegraded(string)               {}

// Request is one market query.
type Request struct {
	Symbol    string
	Period    string
	Interval  string
	NewsCount int
	// Timeout overrides Config.TimeoutDefault when positive. It is still
	// capped by Config.TimeoutMax.
	Timeout time.Duration
}

// NewRequest returns a request for symbol with the default period, interval
// and news count.
func NewRequest(symbol string) Request {
	return Request{
		Symbol:    symbol,
		Period:    DefaultPeriod,
		Interval:  DefaultInterval,
		NewsCount: DefaultNewsCount,
	}
}

// WithDefaults fills an empty period or interval. A zero NewsCount is a
// request for no news and is kept.
func (r Request) WithDefaults() Request {
	if r.Period == "" {
		r.Period = DefaultPeriod
	}
	if r.Interval == "" {
		r.Interval = DefaultInterval
	}
	return r
}

type Engine struct {
	src     provider.Source
	pool    *workpool.Pool
	cfg     Config
	log     zerolog.Logger
	metrics Recorder
	now     func() time.Time
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithMetrics(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.metrics = r
		}
	}
}

// WithClock replaces the clock used for report timestamps.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New builds an engine over src. Fetches run on pool, which is normally
// shared by the whole process.
func New(src provider.Source, pool *workpool.Pool, cfg Config, opts ...Option) *Engine {
	if pool == nil {
		pool = workpool.New(workpool.DefaultSize)
	}
	e := &Engine{
		src:     src,
		pool:    pool,
		cfg:     cfg,
		log:     zerolog.Nop(),
		metrics: nopRecorder{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Timeout returns the deadline applied to a request asking for requested.
func (e *Engine) Timeout(requested time.Duration) time.Duration {
	t := e.cfg.TimeoutDefault
	if requested > 0 {
		t = requested
	}
	if e.cfg.TimeoutMax > 0 && (t <= 0 || t > e.cfg.TimeoutMax) {
		t = e.cfg.TimeoutMax
	}
	return t
}

// Query never fails: errors become a report with Success false and Error set.
func (e *Engine) Query(ctx context.Context, req Request) market.Report {
	req = req.WithDefaults()
	start := time.Now()

	rep, err := e.safeQuery(ctx, req)
	if err != nil {
		rep = market.Failed(req.Symbol, err.Error())
	}
	e.finish(req.Symbol, err, time.Since(start))
	return rep
}

func (e *Engine) safeQuery(ctx context.Context, req Request) (rep market.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			rep, err = market.Report{}, fmt.Errorf("%v", r)
		}
	}()
	return e.query(ctx, req)
}

func (e *Engine) query(ctx context.Context, req Request) (market.Report, error) {
	timeout := e.Timeout(req.Timeout)
	key := symbol.Normalize(req.Symbol)

	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	quoteCh := workpool.Submit(fctx, e.pool, func(ctx context.Context) (market.Snapshot, error) {
		return e.src.Quote(ctx, key)
	})
	historyCh := workpool.Submit(fctx, e.pool, withFallback(e, req.Symbol, "history", func(ctx context.Context) (*market.History, error) {
		return e.src.History(ctx, key, req.Period, req.Interval)
	}))
	newsCh := workpool.Submit(fctx, e.pool, withFallback(e, req.Symbol, "news", func(ctx context.Context) (any, error) {
		return e.src.News(ctx, key, req.NewsCount)
	}))

	snap, err := workpool.Await(fctx, quoteCh)
	if err != nil {
		return market.Report{}, e.fetchErr(ctx, fctx, timeout, err)
	}
	hist, err := workpool.Await(fctx, historyCh)
	if err != nil {
		return market.Report{}, e.fetchErr(ctx, fctx, timeout, err)
	}
	rawNews, err := workpool.Await(fctx, newsCh)
	if err != nil {
		return market.Report{}, e.fetchErr(ctx, fctx, timeout, err)
	}

	f := coerce.Fields(snap)
	price := coerce.ToFloat(f.Get("regularMarketPrice"))
	if len(snap) == 0 || price == nil {
		return market.Report{}, &BadSymbol{Symbol: req.Symbol}
	}

	return market.Report{
		Symbol:        strings.ToUpper(req.Symbol),
		Name:          name(f),
		Price:         *price,
		Change:        floatOr(f.Get("regularMarketChange")),
		ChangePercent: floatOr(f.Get("regularMarketChangePercent")),
		Volume:        intOr(f.Get("regularMarketVolume")),
		MarketCap:     intOr(f.Get("marketCap")),
		Currency:      currency(f),
		Timestamp:     coerce.Format(e.now().UTC()),
		Success:       true,
		Fundamentals:  fundamentals.Extract(snap),
		News:          news.Shape(rawNews, req.NewsCount),
		Trend:         trend.Compute(hist),
	}, nil
}

// fetchErr maps a failed join to the error reported to the caller. The
// caller's own cancellation wins over the query deadline.
func (e *Engine) fetchErr(parent, fctx context.Context, timeout time.Duration, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(fctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{After: timeout}
	}
	return err
}

func (e *Engine) finish(sym string, err error, elapsed time.Duration) {
	outcome := Outcome(err)
	var ev *zerolog.Event
	switch outcome {
	case OutcomeOK, OutcomeInvalidSymbol:
		ev = e.log.Debug()
	case OutcomeTimeout:
		ev = e.log.Warn()
	default:
		ev = e.log.Error()
	}
	ev.Str("symbol", sym).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Err(err).
		Msg("market query")
	e.metrics.ObserveQuery(outcome, elapsed)
}

func name(f coerce.Fields) string {
	if s := f.Str("shortName"); s != "" {
		return s
	}
	return f.Str("longName")
}

func currency(f coerce.Fields) string {
	if s := f.Str("currency"); s != "" {
		return s
	}
	return defaultCurrency
}

func floatOr(v any) float64 {
	if p := coerce.ToFloat(v); p != nil {
		return *p
	}
	return 0
}

func intOr(v any) int64 {
	if p := coerce.ToInt(v); p != nil {
		return *p
	}
	return 0
}
