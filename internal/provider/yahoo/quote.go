package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"marketreport/internal/coerce"
	"marketreport/internal/market"
)

// summaryModules are merged into the quote to supply fundamentals the v7
// quote endpoint does not carry.
var summaryModules = []string{
	"price",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
	"calendarEvents",
}

// quoteAliases copies v7 field names to the names used by quoteSummary.
var quoteAliases = map[string]string{
	"epsTrailingTwelveMonths": "trailingEps",
	"epsForward":              "forwardEps",
}

// Quote returns the first quote result for symbol merged with its summary
// modules. An unknown symbol yields an empty snapshot and no error.
func (c *Client) Quote(ctx context.Context, symbol string) (market.Snapshot, error) {
	crumb, err := c.sessionCrumb(ctx)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	query := url.Values{}
	query.Add("symbols", symbol)
	if crumb != "" {
		query.Add("crumb", crumb)
	}
	body, err := c.getJSON(ctx, fmt.Sprintf("%s/v7/finance/quote?%s", c.baseURL, query.Encode()))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.dropCrumb()
		}
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	// {
	//   "quoteResponse": {
	//     "result": [{"symbol": "AAPL", "regularMarketPrice": 189.5, ...}],
	//     "error": null
	//   }
	// }
	results, _ := coerce.AsList(coerce.Fields(body).Object("quoteResponse").Get("result"))
	if len(results) == 0 {
		return market.Snapshot{}, nil
	}
	first, ok := coerce.AsFields(results[0])
	if !ok {
		return nil, fmt.Errorf("decoding quote: unexpected type: %T", results[0])
	}

	snapshot := market.Snapshot(first)
	for from, to := range quoteAliases {
		if _, ok := snapshot[to]; !ok {
			if v, ok := snapshot[from]; ok {
				snapshot[to] = v
			}
		}
	}

	summary, err := c.summary(ctx, symbol, crumb)
	if err != nil && !errors.Is(err, ErrNotFound) {
		if errors.Is(err, ErrUnauthorized) {
			c.dropCrumb()
		}
		return nil, fmt.Errorf("quote summary %s: %w", symbol, err)
	}
	for k, v := range summary {
		if _, ok := snapshot[k]; !ok {
			snapshot[k] = v
		}
	}
	return snapshot, nil
}

// summary fetches the quoteSummary modules and flattens them into one object.
func (c *Client) summary(ctx context.Context, symbol, crumb string) (map[string]any, error) {
	query := url.Values{}
	query.Add("modules", strings.Join(summaryModules, ","))
	if crumb != "" {
		query.Add("crumb", crumb)
	}
	body, err := c.getJSON(ctx, fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(symbol), query.Encode()))
	if err != nil {
		return nil, err
	}

	// {
	//   "quoteSummary": {
	//     "result": [{
	//       "summaryDetail": {"dividendYield": {"raw": 0.0045, "fmt": "0.45%"}, ...},
	//       "calendarEvents": {"earnings": {"earningsDate": [{"raw": 1714075200, "fmt": "2024-04-25"}]}}
	//     }],
	//     "error": null
	//   }
	// }
	results, _ := coerce.AsList(coerce.Fields(body).Object("quoteSummary").Get("result"))
	if len(results) == 0 {
		return nil, nil
	}
	modules, _ := coerce.AsFields(results[0])

	out := map[string]any{}
	for _, name := range summaryModules {
		flatten(out, modules.Object(name))
	}
	return out, nil
}

// flatten copies leaf values of obj into dst, unwrapping {"raw": ..., "fmt": ...}
// pairs and descending into plain nested objects. Keys already in dst win.
func flatten(dst map[string]any, obj coerce.Fields) {
	for k, v := range obj {
		if nested, ok := coerce.AsFields(v); ok && len(nested) > 0 && nested.Get("raw") == nil && nested.Get("fmt") == nil {
			flatten(dst, nested)
			continue
		}
		leaf, ok := unwrap(v)
		if !ok {
			continue
		}
		if _, exists := dst[k]; !exists {
			dst[k] = leaf
		}
	}
}

func unwrap(v any) (any, bool) {
	if f, ok := coerce.AsFields(v); ok {
		if raw := f.Get("raw"); raw != nil {
			return raw, true
		}
		return nil, false
	}
	if list, ok := coerce.AsList(v); ok {
		out := make([]any, 0, len(list))
		for _, item := range list {
			if leaf, ok := unwrap(item); ok {
				out = append(out, leaf)
			}
		}
		return out, true
	}
	return v, v != nil
}
