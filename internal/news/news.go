// Package news shapes provider news payloads into market.NewsEntry values.
package news

import (
	"marketreport/internal/coerce"
	"marketreport/internal/market"
)

// Shape returns up to limit entries from payload, in payload order.
// Each item is expected to look like:
//
//	{
//	  "id": "...",
//	  "content": {
//	    "title": "...",
//	    "pubDate": "2025-01-02T15:04:05Z",
//	    "contentType": "STORY",
//	    "canonicalUrl": {"url": "..."},
//	    "clickThroughUrl": {"url": "..."},
//	    "provider": {"displayName": "..."}
//	  }
//	}
//
// Only the first limit items are considered; items without a content object
// are skipped. Unrecognised payloads yield an empty slice.
func Shape(payload any, limit int) []market.NewsEntry {
	items, ok := coerce.AsList(payload)
	if !ok {
		return []market.NewsEntry{}
	}
	if limit < 0 {
		limit = 0
	}
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]market.NewsEntry, 0, len(items))
	for _, raw := range items {
		item, ok := coerce.AsFields(raw)
		if !ok {
			continue
		}
		content := item.Object("content")
		if content == nil {
			continue
		}
		out = append(out, entry(content))
	}
	return out
}

func entry(content coerce.Fields) market.NewsEntry {
	link := content.Object("canonicalUrl").Str("url")
	if link == "" {
		link = content.Object("clickThroughUrl").Str("url")
	}
	return market.NewsEntry{
		Title:     content.Str("title"),
		Link:      link,
		Publisher: content.Object("provider").Str("displayName"),
		Published: content.Str("pubDate"),
		Type:      content.Str("contentType"),
	}
}
