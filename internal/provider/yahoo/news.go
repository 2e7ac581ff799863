package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"marketreport/internal/coerce"
)

type newsRequest struct {
	ServiceConfig newsServiceConfig `json:"serviceConfig"`
}

type newsServiceConfig struct {
	SnippetCount int      `json:"snippetCount"`
	Symbols      []string `json:"s"`
}

// News returns up to count raw stream items for symbol with advertisements
// removed. A non-positive count makes no request.
func (c *Client) News(ctx context.Context, symbol string, count int) (any, error) {
	if count <= 0 {
		return []any{}, nil
	}

	payload, err := json.Marshal(newsRequest{ServiceConfig: newsServiceConfig{
		SnippetCount: count,
		Symbols:      []string{symbol},
	}})
	if err != nil {
		return nil, fmt.Errorf("encoding news request: %w", err)
	}

	query := url.Values{}
	query.Add("queryRef", "latestNews")
	query.Add("serviceKey", "ncp_fin")
	body, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s?%s", c.newsURL, query.Encode()), payload)
	if err != nil {
		return nil, fmt.Errorf("news %s: %w", symbol, err)
	}

	// {"data": {"tickerStream": {"stream": [{"id": "...", "content": {...}}, {"id": "...", "ad": [...]}]}}}
	stream, _ := coerce.AsList(coerce.Fields(body).Object("data").Object("tickerStream").Get("stream"))
	items := make([]any, 0, len(stream))
	for _, item := range stream {
		if f, ok := coerce.AsFields(item); ok && f.Get("ad") != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
