package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketreport/internal/app"
	"marketreport/internal/config"
)

// maxBodyBytes bounds POST /api/market bodies.
const maxBodyBytes = 64 << 10

func main() {
	// Config
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	log := app.Logger(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
	}
	eng := app.NewEngine(cfg, app.NewSource(cfg), log, reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/api/market", &marketHandler{
		eng:      eng,
		defaults: app.DefaultRequest(cfg.Market, ""),
		timeout:  app.RequestTimeout(cfg.Server),
	})

	root := http.NewServeMux()
	if cfg.Metrics.Enabled {
		root.Handle(cfg.Metrics.Path, promhttp.Handler())
	}
	root.Handle("/", withAPIHeaders(withGzip(recoverPanic(log, limitBody(maxBodyBytes, mux)))))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withRequestID(logRequests(log, root)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      app.RequestTimeout(cfg.Server) + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
