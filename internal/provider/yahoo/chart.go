package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"marketreport/internal/coerce"
	"marketreport/internal/market"
)

// History returns the OHLCV table for symbol. Missing bars are NaN. Daily
// and longer bars are stamped at midnight in the exchange's time zone.
func (c *Client) History(ctx context.Context, symbol, period, interval string) (*market.History, error) {
	query := url.Values{}
	query.Add("range", period)
	query.Add("interval", interval)
	query.Add("includePrePost", "false")
	query.Add("events", "div,splits")

	body, err := c.getJSON(ctx, fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), query.Encode()))
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}

	// {
	//   "chart": {
	//     "result": [{
	//       "meta": {"exchangeTimezoneName": "America/New_York", "gmtoffset": -14400},
	//       "timestamp": [1714052000, ...],
	//       "indicators": {"quote": [{"open": [...], "high": [...], "low": [...], "close": [...], "volume": [...]}]}
	//     }],
	//     "error": null
	//   }
	// }
	chart := coerce.Fields(body).Object("chart")
	if cerr := chart.Object("error"); cerr != nil {
		return nil, fmt.Errorf("chart %s: %s", symbol, cerr.Str("description"))
	}
	results, _ := coerce.AsList(chart.Get("result"))
	if len(results) == 0 {
		return &market.History{}, nil
	}
	result, ok := coerce.AsFields(results[0])
	if !ok {
		return nil, errors.New("decoding chart: unexpected result type")
	}

	stamps, _ := coerce.AsList(result.Get("timestamp"))
	loc := location(result.Object("meta"))
	daily := isDaily(interval)

	h := &market.History{Time: make([]time.Time, 0, len(stamps))}
	for i, s := range stamps {
		sec := coerce.ToInt(s)
		if sec == nil {
			return nil, fmt.Errorf("decoding chart: timestamp %d: unexpected value %v", i, s)
		}
		t := time.Unix(*sec, 0).In(loc)
		if daily {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		}
		h.Time = append(h.Time, t)
	}

	quotes, _ := coerce.AsList(result.Object("indicators").Get("quote"))
	if len(quotes) == 0 {
		return h, nil
	}
	columns, _ := coerce.AsFields(quotes[0])
	h.Open = column(columns, "open", len(h.Time))
	h.High = column(columns, "high", len(h.Time))
	h.Low = column(columns, "low", len(h.Time))
	h.Close = column(columns, "close", len(h.Time))
	h.Volume = column(columns, "volume", len(h.Time))
	return h, nil
}

// column reads one indicator series padded or cut to n rows. A missing
// series is nil.
func column(columns coerce.Fields, key string, n int) []float64 {
	values, ok := coerce.AsList(columns.Get(key))
	if !ok {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
		if i < len(values) {
			if f := coerce.ToFloat(values[i]); f != nil {
				out[i] = *f
			}
		}
	}
	return out
}

func location(meta coerce.Fields) *time.Location {
	if name := meta.Str("exchangeTimezoneName"); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if off := coerce.ToInt(meta.Get("gmtoffset")); off != nil {
		return time.FixedZone(meta.Str("timezone"), int(*off))
	}
	return time.UTC
}

func isDaily(interval string) bool {
	return strings.HasSuffix(interval, "d") || strings.HasSuffix(interval, "wk") || strings.HasSuffix(interval, "mo")
}
