package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"marketreport/internal/app"
	"marketreport/internal/config"
	"marketreport/internal/engine"
	"marketreport/internal/market"
)

type querier interface {
	Query(ctx context.Context, req engine.Request) market.Report
}

func main() {
	var (
		symbolsCSV string
		period     string
		interval   string
		news       int
		timeout    int
		configPath string
	)
	flag.StringVar(&symbolsCSV, "symbols", os.Getenv("SYMBOLS"), "comma-separated symbols, in addition to positional arguments")
	flag.StringVar(&period, "period", "", "history period (default from config, e.g. 1y)")
	flag.StringVar(&interval, "interval", "", "history interval (default from config, e.g. 1d)")
	flag.IntVar(&news, "news", -1, "number of news items (default from config)")
	flag.IntVar(&timeout, "timeout", 0, "per-query timeout seconds, capped by market.timeout_max")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] SYMBOL...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(configPath)
	log := app.Logger(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	symbols := append(splitCSV(symbolsCSV), flag.Args()...)
	if len(symbols) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	base := app.DefaultRequest(cfg.Market, "")
	if period != "" {
		base.Period = period
	}
	if interval != "" {
		base.Interval = interval
	}
	if news >= 0 {
		base.NewsCount = news
	}
	if timeout > 0 {
		base.Timeout = time.Duration(timeout) * time.Second
	}
	reqs := make([]engine.Request, 0, len(symbols))
	for _, s := range symbols {
		r := base
		r.Symbol = s
		reqs = append(reqs, r)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := app.NewEngine(cfg, app.NewSource(cfg), log, nil)
	failed, err := run(ctx, eng, reqs, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("write reports")
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("total", len(reqs)).Msg("some queries failed")
		os.Exit(1)
	}
}

// run queries every request concurrently and writes the reports in request
// order as indented JSON. It returns the number of failed reports.
func run(ctx context.Context, q querier, reqs []engine.Request, w io.Writer) (int, error) {
	reports := make([]market.Report, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = q.Query(ctx, req)
		}()
	}
	wg.Wait()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	failed := 0
	for _, r := range reports {
		if !r.Success {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
