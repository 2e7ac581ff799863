package yahoo_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"marketreport/internal/provider/yahoo"
)

// jsonResponse encodes body as a response with the given status.
func jsonResponse(t *testing.T, status int, body any) *http.Response {
	t.Helper()

	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(body))
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(buffer),
	}
}

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func TestNewClient(t *testing.T) {
	t.Parallel()

	client := yahoo.NewClient()
	require.NotNil(t, client)
	require.Equal(t, "yahoo", client.Name())
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
			return jsonResponse(t, http.StatusOK, map[string]any{}), nil
		}).
		Times(1)

	// Arrange: create a new client.
	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient), yahoo.WithBaseURL(baseURL))

	// Act: call History with the overridden base URL.
	_, err := client.History(t.Context(), "AAPL", "1y", "1d")
	require.NoError(t, err)
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: every request carries the header
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(t, http.StatusOK, map[string]any{}), nil
		}).
		Times(1)

	// Arrange: create a new client with a custom header.
	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient), yahoo.WithHeader(http.Header{
		"foo": []string{"bar"},
	}))

	// Act
	_, err := client.History(t.Context(), "AAPL", "1y", "1d")
	require.NoError(t, err)
}

func TestRetry_RateLimitedThenOK(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).Return(jsonResponse(t, http.StatusTooManyRequests, map[string]any{}), nil),
		httpClient.EXPECT().Do(gomock.Any()).Return(jsonResponse(t, http.StatusBadGateway, map[string]any{}), nil),
		httpClient.EXPECT().Do(gomock.Any()).Return(jsonResponse(t, http.StatusOK, map[string]any{}), nil),
	)
	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient), yahoo.WithRetries(2), yahoo.WithBackOff(noWait))

	// Act
	h, err := client.History(t.Context(), "AAPL", "1y", "1d")

	// Assert
	require.NoError(t, err)
	require.Zero(t, h.Len())
}

func TestRetry_GivesUp(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(*http.Request) (*http.Response, error) {
			return jsonResponse(t, http.StatusTooManyRequests, map[string]any{}), nil
		}).
		Times(2)
	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient), yahoo.WithRetries(1), yahoo.WithBackOff(noWait))

	// Act
	_, err := client.History(t.Context(), "AAPL", "1y", "1d")

	// Assert
	require.ErrorIs(t, err, yahoo.ErrRateLimited)
	require.EqualError(t, err, "chart AAPL: rate limited")
}

func TestStatus_NotRetried(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: "chart AAPL: unauthorized"},
		{name: "forbidden", status: http.StatusForbidden, want: "chart AAPL: unauthorized"},
		{name: "not found", status: http.StatusNotFound, want: "chart AAPL: not found"},
		{name: "bad request", status: http.StatusBadRequest, want: "chart AAPL: unexpected status code: 400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange: exactly one attempt is expected
			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().
				Do(gomock.Any()).
				Return(jsonResponse(t, tt.status, map[string]any{}), nil).
				Times(1)
			client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient), yahoo.WithRetries(3), yahoo.WithBackOff(noWait))

			// Act
			_, err := client.History(t.Context(), "AAPL", "1y", "1d")

			// Assert
			require.EqualError(t, err, tt.want)
		})
	}
}

func TestTransportError_Retried(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection reset")),
		httpClient.EXPECT().Do(gomock.Any()).Return(jsonResponse(t, http.StatusOK, map[string]any{}), nil),
	)
	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient), yahoo.WithBackOff(noWait))

	_, err := client.History(t.Context(), "AAPL", "1y", "1d")
	require.NoError(t, err)
}

func TestDecodeError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("<html>"))}, nil).
		Times(1)
	client := yahoo.NewClient(yahoo.WithHTTPClient(httpClient), yahoo.WithBackOff(noWait))

	_, err := client.History(t.Context(), "AAPL", "1y", "1d")
	require.ErrorContains(t, err, "decoding response")
}
