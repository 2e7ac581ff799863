// Package market holds the report schema and the raw provider shapes the
// engine derives it from.
package market

import (
	"time"

	"marketreport/internal/coerce"
)

// Report is the structured answer to a single market query.
// On failure every numeric field is zero and Fundamentals, Trend and News are nil.
type Report struct {
	Symbol        string        `json:"symbol"`
	Name          string        `json:"name"`
	Price         float64       `json:"price"`
	Change        float64       `json:"change"`
	ChangePercent float64       `json:"change_percent"`
	Volume        int64         `json:"volume"`
	MarketCap     int64         `json:"market_cap"`
	Currency      string        `json:"currency"`
	Timestamp     string        `json:"timestamp"`
	Success       bool          `json:"success"`
	Fundamentals  *Fundamentals `json:"fundamentals"`
	News          []NewsEntry   `json:"news"`
	Trend         *Trend        `json:"trend"`
	Error         *string       `json:"error"`
}

// Failed builds a failure report for the symbol as it was requested.
func Failed(symbol, msg string) Report {
	return Report{Symbol: symbol, Error: &msg}
}

// Fundamentals are valuation and earnings fields pulled from a quote snapshot.
// A nil field means the provider did not report it.
type Fundamentals struct {
	TrailingEPS             *float64             `json:"trailing_eps"`
	ForwardEPS              *float64             `json:"forward_eps"`
	TrailingPE              *float64             `json:"trailing_pe"`
	ForwardPE               *float64             `json:"forward_pe"`
	DividendYield           *float64             `json:"dividend_yield"`
	DividendRate            *float64             `json:"dividend_rate"`
	PayoutRatio             *float64             `json:"payout_ratio"`
	ProfitMargin            *float64             `json:"profit_margin"`
	OperatingMargin         *float64             `json:"operating_margin"`
	GrossMargin             *float64             `json:"gross_margin"`
	EarningsDate            *coerce.EarningsDate `json:"earnings_date"`
	EarningsQuarterlyGrowth *float64             `json:"earnings_quarterly_growth"`
	EarningsGrowth          *float64             `json:"earnings_growth"`
}

// Trend is the technical summary of a closing-price series.
type Trend struct {
	AsOf  *string `json:"as_of"`
	Close float64 `json:"close"`

	Price1W *float64 `json:"price_1w"`
	Price1M *float64 `json:"price_1m"`
	Price3M *float64 `json:"price_3m"`
	Price6M *float64 `json:"price_6m"`
	Price1Y *float64 `json:"price_1y"`

	Return1W *float64 `json:"return_1w"`
	Return1M *float64 `json:"return_1m"`
	Return3M *float64 `json:"return_3m"`
	Return6M *float64 `json:"return_6m"`
	Return1Y *float64 `json:"return_1y"`

	MA20          *float64 `json:"ma20"`
	MA50          *float64 `json:"ma50"`
	MA200         *float64 `json:"ma200"`
	Volatility20D *float64 `json:"volatility_20d"`
	RSI14         *float64 `json:"rsi14"`
	Range52WLow   *float64 `json:"range_52w_low"`
	Range52WHigh  *float64 `json:"range_52w_high"`

	LastWeek   []DailyClose `json:"last_week"`
	DataPoints int          `json:"data_points"`
}

// DailyClose is one row of the recent close window.
type DailyClose struct {
	Date  *string  `json:"date"`
	Close *float64 `json:"close"`
}

// NewsEntry always carries all five fields; missing values are empty strings.
type NewsEntry struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Publisher string `json:"publisher"`
	Published string `json:"published"`
	Type      string `json:"type"`
}

// Snapshot is a loosely-typed quote: field name to whatever the provider sent.
type Snapshot map[string]any

// History is a time-indexed price table. A nil column is absent; NaN marks a gap.
type History struct {
	Time   []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len reports the number of rows.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Time)
}
