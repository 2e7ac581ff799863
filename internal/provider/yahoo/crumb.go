package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxCrumbBytes caps the crumb response body.
const maxCrumbBytes = 1 << 10

// sessionCrumb returns the cached crumb, performing the handshake on first
// use. It returns "" when the handshake is disabled.
func (c *Client) sessionCrumb(ctx context.Context) (string, error) {
	if c.cookieURL == "" {
		return "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crumb != "" {
		return c.crumb, nil
	}

	// The cookie endpoint answers with an error status but still sets the
	// session cookie, so only transport errors matter here.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cookieURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating cookie request: %w", err)
	}
	req.Header = c.header.Clone()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching cookie: %w", err)
	}
	res.Body.Close()

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/test/getcrumb", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating crumb request: %w", err)
	}
	req.Header = c.header.Clone()
	res, err = c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching crumb: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching crumb: unexpected status code: %d", res.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, maxCrumbBytes))
	if err != nil {
		return "", fmt.Errorf("reading crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(b))
	if crumb == "" {
		return "", errors.New("fetching crumb: empty crumb")
	}
	c.crumb = crumb
	return crumb, nil
}

// dropCrumb forgets a crumb the server no longer accepts.
func (c *Client) dropCrumb() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}
