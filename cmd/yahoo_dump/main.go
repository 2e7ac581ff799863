package main

import (
	"context"
	"encoding/json"
	"flag"
	"math"
	"os"
	"time"

	"marketreport/internal/app"
	"marketreport/internal/coerce"
	"marketreport/internal/config"
	"marketreport/internal/market"
	"marketreport/internal/provider"
	"marketreport/internal/symbol"
)

type dump struct {
	Symbol    string            `json:"symbol"`
	Lookup    string            `json:"lookup"`
	FetchedAt string            `json:"fetched_at"`
	Quote     market.Snapshot   `json:"quote,omitempty"`
	History   []row             `json:"history,omitempty"`
	News      any               `json:"news,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type row struct {
	Time   string   `json:"time"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

func main() {
	var (
		sym        string
		outPath    string
		cfgPath    string
		period     string
		interval   string
		news       int
		timeoutSec int
	)
	flag.StringVar(&sym, "symbol", "AAPL", "symbol to dump (USD/ZAR style pairs are normalized)")
	flag.StringVar(&outPath, "out", "", "output JSON file path (default <lookup>_raw.json)")
	flag.StringVar(&cfgPath, "config", "", "path to config.yaml (optional)")
	flag.StringVar(&period, "period", "1y", "history period")
	flag.StringVar(&interval, "interval", "1d", "history interval")
	flag.IntVar(&news, "news", 10, "news items to request")
	flag.IntVar(&timeoutSec, "timeout", 30, "overall timeout seconds")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	log := app.Logger(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	lookup := symbol.Normalize(sym)
	if outPath == "" {
		outPath = lookup + "_raw.json"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	d := collect(ctx, app.NewSource(cfg), sym, lookup, period, interval, news)
	for part, msg := range d.Errors {
		log.Warn().Str("part", part).Str("error", msg).Msg("fetch failed")
	}

	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("encode dump")
	}
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write dump")
	}
	log.Info().
		Str("out", outPath).
		Int("quote_fields", len(d.Quote)).
		Int("history_rows", len(d.History)).
		Msg("dump written")
}

// collect fetches every raw payload for lookup, recording failures per part
// instead of stopping.
func collect(ctx context.Context, src provider.Source, sym, lookup, period, interval string, news int) dump {
	d := dump{
		Symbol:    sym,
		Lookup:    lookup,
		FetchedAt: coerce.Format(time.Now().UTC()),
		Errors:    map[string]string{},
	}

	if q, err := src.Quote(ctx, lookup); err != nil {
		d.Errors["quote"] = err.Error()
	} else {
		d.Quote = q
	}

	if h, err := src.History(ctx, lookup, period, interval); err != nil {
		d.Errors["history"] = err.Error()
	} else {
		d.History = rows(h)
	}

	if n, err := src.News(ctx, lookup, news); err != nil {
		d.Errors["news"] = err.Error()
	} else {
		d.News = n
	}
	return d
}

func rows(h *market.History) []row {
	out := make([]row, 0, h.Len())
	for i := 0; i < h.Len(); i++ {
		out = append(out, row{
			Time:   coerce.Format(h.Time[i]),
			Open:   cell(h.Open, i),
			High:   cell(h.High, i),
			Low:    cell(h.Low, i),
			Close:  cell(h.Close, i),
			Volume: cell(h.Volume, i),
		})
	}
	return out
}

// cell returns column[i], or nil for a missing column or a NaN gap.
func cell(column []float64, i int) *float64 {
	if i >= len(column) || math.IsNaN(column[i]) || math.IsInf(column[i], 0) {
		return nil
	}
	v := column[i]
	return &v
}
