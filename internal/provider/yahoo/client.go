package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/cenkalti/backoff/v4"
)

const (
	baseURL = "https://query1.finance.yahoo.com"
	newsURL = "https://finance.yahoo.com/xhr/ncp"

	// CookieURL hands out the session cookie the crumb endpoint expects.
	CookieURL = "https://fc.yahoo.com"

	defaultRetries = 2
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrNotFound     = errors.New("not found")
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the public Yahoo Finance endpoints. It implements
// provider.Source.
type Client struct {
	// baseURL serves the quote, quoteSummary and chart APIs.
	baseURL string
	// newsURL serves the ticker news stream.
	newsURL string
	// httpClient sends every request, including the crumb handshake.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// retries bounds how often a rate limited or failed request is repeated.
	retries uint64
	// backOff builds the wait schedule between retries.
	backOff func() backoff.BackOff

	// cookieURL enables the crumb handshake when set.
	cookieURL string
	mu        sync.Mutex
	crumb     string
}

// ClientOption is a configuration option for the Yahoo client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the finance API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithNewsURL sets the URL of the news stream endpoint.
func WithNewsURL(newsURL string) ClientOption {
	return func(c *Client) {
		c.newsURL = newsURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithRetries sets how many times a retryable failure is repeated.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = uint64(n)
	}
}

// WithBackOff replaces the exponential wait between retries.
func WithBackOff(fn func() backoff.BackOff) ClientOption {
	return func(c *Client) {
		c.backOff = fn
	}
}

// WithCrumb turns on the cookie and crumb handshake required by the quote
// endpoints. The HTTP client must keep cookies between requests.
func WithCrumb(cookieURL string) ClientOption {
	return func(c *Client) {
		c.cookieURL = cookieURL
	}
}

// NewClient creates a new Yahoo Finance client.
func NewClient(options ...ClientOption) *Client {
	var client = &Client{
		baseURL:    baseURL,
		newsURL:    newsURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		retries:    defaultRetries,
		backOff:    func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, option := range options {
		option(client)
	}
	return client
}

func (c *Client) Name() string { return "yahoo" }

// getJSON performs a GET and decodes the JSON object it returns.
func (c *Client) getJSON(ctx context.Context, url string) (map[string]any, error) {
	return c.doJSON(ctx, http.MethodGet, url, nil)
}

// doJSON sends the request, retrying rate limits, server errors and
// transport failures with backoff. Numbers decode as json.Number.
func (c *Client) doJSON(ctx context.Context, method, url string, payload []byte) (map[string]any, error) {
	var body map[string]any
	operation := func() error {
		var reader io.Reader = http.NoBody
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header = c.header.Clone()
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("performing request: %w", err)
		}
		defer res.Body.Close()

		if err := checkStatus(res.StatusCode); err != nil {
			return err
		}

		body = nil
		dec := json.NewDecoder(res.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.backOff(), c.retries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return body, nil
}

// checkStatus maps a response status to an error. Only rate limits and
// server errors are worth retrying.
func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return backoff.Permanent(ErrUnauthorized)
	case code == http.StatusNotFound:
		return backoff.Permanent(ErrNotFound)
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("unexpected status code: %d", code)
	default:
		return backoff.Permanent(fmt.Errorf("unexpected status code: %d", code))
	}
}
