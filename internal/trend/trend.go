// Package trend derives return lookbacks, moving averages, volatility, RSI
// and range statistics from a historical price table.
package trend

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"marketreport/internal/coerce"
	"marketreport/internal/market"
)

const (
	// TradingDays annualizes daily volatility and sizes the 52-week range.
	TradingDays = 252

	volWindow    = 20
	rsiPeriod    = 14
	lastWeekRows = 5
)

// series is the cleaned close column: finite closes with their timestamps.
type series struct {
	times  []time.Time
	closes []float64
}

// Compute returns nil when h has no rows, no close column, or no finite close.
func Compute(h *market.History) *market.Trend {
	if h.Len() == 0 || h.Close == nil {
		return nil
	}
	s := clean(h)
	if len(s.closes) == 0 {
		return nil
	}

	// Lookbacks are calendar days back from the last row of the table, which
	// may be a gap in the close column. Wall-clock time is kept across DST.
	last := h.Time[h.Len()-1]
	lastClose := s.closes[len(s.closes)-1]

	t := &market.Trend{
		AsOf:       coerce.FormatTimestamp(last),
		Close:      lastClose,
		DataPoints: len(s.closes),
	}

	lookbacks := []struct {
		weeks      int
		price, ret **float64
	}{
		{1, &t.Price1W, &t.Return1W},
		{4, &t.Price1M, &t.Return1M},
		{13, &t.Price3M, &t.Return3M},
		{26, &t.Price6M, &t.Return6M},
		{52, &t.Price1Y, &t.Return1Y},
	}
	for _, lb := range lookbacks {
		past := s.at(last.AddDate(0, 0, -7*lb.weeks))
		if past == nil {
			continue
		}
		*lb.price = past
		*lb.ret = finite((lastClose / *past - 1) * 100)
	}

	t.MA20 = movingAverage(s.closes, 20)
	t.MA50 = movingAverage(s.closes, 50)
	t.MA200 = movingAverage(s.closes, 200)
	t.Volatility20D = volatility(s.closes, volWindow)
	t.RSI14 = rsi(s.closes, rsiPeriod)
	t.Range52WLow, t.Range52WHigh = yearRange(h)
	t.LastWeek = lastRows(h, lastWeekRows)
	return t
}

func clean(h *market.History) series {
	n := h.Len()
	s := series{
		times:  make([]time.Time, 0, n),
		closes: make([]float64, 0, n),
	}
	for i := 0; i < n && i < len(h.Close); i++ {
		c := h.Close[i]
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		s.times = append(s.times, h.Time[i])
		s.closes = append(s.closes, c)
	}
	return s
}

// at returns the latest close observed at or before target.
func (s series) at(target time.Time) *float64 {
	idx := sort.Search(len(s.times), func(i int) bool { return s.times[i].After(target) })
	if idx == 0 {
		return nil
	}
	c := s.closes[idx-1]
	return &c
}

func movingAverage(closes []float64, n int) *float64 {
	if len(closes) < n {
		return nil
	}
	return finite(stat.Mean(closes[len(closes)-n:], nil))
}

// volatility annualizes the sample deviation of the trailing simple returns.
// It accepts as few as two returns when the window cannot be filled.
func volatility(closes []float64, window int) *float64 {
	if len(closes) < 3 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) > window {
		returns = returns[len(returns)-window:]
	}
	return finite(stat.StdDev(returns, nil) * math.Sqrt(TradingDays) * 100)
}

// rsi is the simple-average Relative Strength Index over the last period deltas.
func rsi(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return nil
	}
	if avgLoss == 0 {
		v := 100.0
		return &v
	}
	return finite(100 - 100/(1+avgGain/avgLoss))
}

// yearRange uses the low/high columns when both exist, else the closes.
func yearRange(h *market.History) (low, high *float64) {
	n := h.Len()
	from := 0
	if n > TradingDays {
		from = n - TradingDays
	}
	lows, highs := h.Low, h.High
	if lows == nil || highs == nil {
		lows, highs = h.Close, h.Close
	}

	minV, maxV := math.Inf(1), math.Inf(-1)
	for i := from; i < n; i++ {
		if i < len(lows) && !math.IsNaN(lows[i]) {
			minV = math.Min(minV, lows[i])
		}
		if i < len(highs) && !math.IsNaN(highs[i]) {
			maxV = math.Max(maxV, highs[i])
		}
	}
	return finite(minV), finite(maxV)
}

func lastRows(h *market.History, k int) []market.DailyClose {
	n := h.Len()
	from := 0
	if n > k {
		from = n - k
	}
	out := make([]market.DailyClose, 0, n-from)
	for i := from; i < n; i++ {
		row := market.DailyClose{Date: coerce.FormatTimestamp(h.Time[i])}
		if i < len(h.Close) {
			row.Close = finite(h.Close[i])
		}
		out = append(out, row)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
