package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"marketreport/internal/engine"
	"marketreport/internal/market"
)

// maxBatch bounds the symbols accepted by one POST.
const maxBatch = 50

type querier interface {
	Query(ctx context.Context, req engine.Request) market.Report
}

type marketHandler struct {
	eng querier
	// defaults supplies period, interval and news count; Symbol is ignored.
	defaults engine.Request
	timeout  time.Duration
}

type batchBody struct {
	Symbols   []string `json:"symbols"`
	Period    string   `json:"period"`
	Interval  string   `json:"interval"`
	NewsCount *int     `json:"news_count"`
	Timeout   *int     `json:"timeout"`
}

type batchResponse struct {
	Reports []market.Report `json:"reports"`
}

func (h *marketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *marketHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := h.defaults
	req.Symbol = strings.TrimSpace(q.Get("symbol"))
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol query param")
		return
	}
	if v := q.Get("period"); v != "" {
		req.Period = v
	}
	if v := q.Get("interval"); v != "" {
		req.Interval = v
	}
	if v := q.Get("news_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "news_count must be a non-negative integer")
			return
		}
		req.NewsCount = n
	}
	if v := q.Get("timeout"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "timeout must be a positive integer")
			return
		}
		req.Timeout = time.Duration(n) * time.Second
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	writeJSON(w, http.StatusOK, h.eng.Query(ctx, req))
}

func (h *marketHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var b batchBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(b.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols cannot be empty")
		return
	}
	if len(b.Symbols) > maxBatch {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many symbols (max %d)", maxBatch))
		return
	}

	base := h.defaults
	if b.Period != "" {
		base.Period = b.Period
	}
	if b.Interval != "" {
		base.Interval = b.Interval
	}
	if b.NewsCount != nil {
		if *b.NewsCount < 0 {
			writeError(w, http.StatusBadRequest, "news_count must be a non-negative integer")
			return
		}
		base.NewsCount = *b.NewsCount
	}
	if b.Timeout != nil {
		if *b.Timeout <= 0 {
			writeError(w, http.StatusBadRequest, "timeout must be a positive integer")
			return
		}
		base.Timeout = time.Duration(*b.Timeout) * time.Second
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// fetches still run on the engine's bounded pool
	reports := make([]market.Report, len(b.Symbols))
	var wg sync.WaitGroup
	for i, symbol := range b.Symbols {
		req := base
		req.Symbol = strings.TrimSpace(symbol)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if req.Symbol == "" {
				reports[i] = market.Failed(symbol, "empty symbol")
				return
			}
			reports[i] = h.eng.Query(ctx, req)
		}()
	}
	wg.Wait()
	writeJSON(w, http.StatusOK, batchResponse{Reports: reports})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
