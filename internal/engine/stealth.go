package engine

import (
	"context"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Re-export stealth retry and header helpers for adapter consumers.
var DefaultRetryConfig = stealth.DefaultRetryConfig

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }

func RetryHTTP(ctx context.Context, rc stealth.RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	return stealth.RetryHTTP(ctx, rc, fn)
}

// BrowserHeaders returns Chrome-like headers with the given referer, for
// platforms whose web APIs reject requests without one (TikTok, Bilibili, Weibo).
func BrowserHeaders(referer string) map[string]string {
	h := ChromeHeaders()
	// net/http decompresses transparently only when it set Accept-Encoding itself.
	delete(h, "accept-encoding")
	if referer != "" {
		h["referer"] = referer
	}
	return h
}
