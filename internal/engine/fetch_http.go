package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes caps how much of a platform response is read into memory.
const maxBodyBytes = 4 * 1024 * 1024

// HTTPStatusError reports a non-2xx platform response that was not retried away.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string // first bytes of the body, for logs
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// FetchBytes performs a GET with retry on transient failures and returns the body.
// headers are applied verbatim; a random desktop User-Agent is set when none is given.
func FetchBytes(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) ([]byte, error) {
	return doFetch(ctx, client, http.MethodGet, rawURL, headers, "")
}

// PostForm performs a form POST with the same retry and status handling as FetchBytes.
func PostForm(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, form string) ([]byte, error) {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/x-www-form-urlencoded"
	return doFetch(ctx, client, http.MethodPost, rawURL, headers, form)
}

func doFetch(ctx context.Context, client *http.Client, method, rawURL string, headers map[string]string, body string) ([]byte, error) {
	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		var rd io.Reader
		if body != "" {
			rd = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", RandomUserAgent())
		}
		return client.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, URL: rawURL, Body: string(snippet)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return data, nil
}
