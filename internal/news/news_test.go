package news_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"marketreport/internal/market"
	"marketreport/internal/news"
)

func item(i int) map[string]any {
	return map[string]any{
		"id": fmt.Sprintf("id-%d", i),
		"content": map[string]any{
			"title":        fmt.Sprintf("headline %d", i),
			"pubDate":      "2025-01-02T15:04:05Z",
			"contentType":  "STORY",
			"canonicalUrl": map[string]any{"url": fmt.Sprintf("https://example.com/%d", i)},
			"provider":     map[string]any{"displayName": "Reuters"},
		},
	}
}

func TestShape_LimitKeepsOrder(t *testing.T) {
	t.Parallel()

	// Arrange: ten well-formed entries
	payload := make([]any, 0, 10)
	for i := 0; i < 10; i++ {
		payload = append(payload, item(i))
	}

	// Act
	got := news.Shape(payload, 3)

	// Assert
	require.Len(t, got, 3)
	for i, e := range got {
		require.Equal(t, fmt.Sprintf("headline %d", i), e.Title)
		require.Equal(t, fmt.Sprintf("https://example.com/%d", i), e.Link)
		require.Equal(t, "Reuters", e.Publisher)
		require.Equal(t, "2025-01-02T15:04:05Z", e.Published)
		require.Equal(t, "STORY", e.Type)
	}
}

func TestShape_MalformedPayload(t *testing.T) {
	t.Parallel()

	for _, payload := range []any{nil, "news", 42, map[string]any{"stream": []any{item(0)}}} {
		got := news.Shape(payload, 5)
		require.NotNil(t, got)
		require.Empty(t, got)
	}
}

func TestShape_NegativeLimit(t *testing.T) {
	t.Parallel()

	got := news.Shape([]any{item(0), item(1)}, -2)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestShape_LinkFallbackAndDefaults(t *testing.T) {
	t.Parallel()

	payload := []any{
		map[string]any{"content": map[string]any{
			"title":           "click only",
			"canonicalUrl":    nil,
			"clickThroughUrl": map[string]any{"url": "https://click.example.com"},
		}},
		map[string]any{"content": map[string]any{
			"title":    7,
			"provider": "not an object",
		}},
	}

	got := news.Shape(payload, 10)
	require.Equal(t, []market.NewsEntry{
		{Title: "click only", Link: "https://click.example.com"},
		{},
	}, got)
}

func TestShape_SkipsEntriesWithoutContent(t *testing.T) {
	t.Parallel()

	// Arrange: the window is applied before malformed items are dropped
	payload := []any{"junk", map[string]any{"id": "x"}, item(2), item(3)}

	got := news.Shape(payload, 3)
	require.Len(t, got, 1)
	require.Equal(t, "headline 2", got[0].Title)
}

func TestShape_DecodedJSON(t *testing.T) {
	t.Parallel()

	raw := `[{"content":{"title":"t","pubDate":"p","contentType":"VIDEO",
		"canonicalUrl":{"url":"u"},"provider":{"displayName":"Yahoo"}}}]`
	var payload any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	got := news.Shape(payload, 1)
	require.Equal(t, []market.NewsEntry{{Title: "t", Link: "u", Publisher: "Yahoo", Published: "p", Type: "VIDEO"}}, got)
}
