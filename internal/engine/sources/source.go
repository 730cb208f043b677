// Package sources implements the live and mock platform adapters behind the video aggregator.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"

	"github.com/anatolykoptev/go_video/internal/engine"
	"golang.org/x/time/rate"
)

// httpSource is the shared plumbing of the HTTP adapters: one client, one
// per-platform rate limiter and the request counter.
type httpSource struct {
	platform engine.Platform
	client   *http.Client
	limiter  *rate.Limiter // nil = unlimited
	headers  map[string]string
}

func newHTTPSource(p engine.Platform, cfg engine.Config, headers map[string]string) httpSource {
	s := httpSource{platform: p, client: cfg.Client(), headers: headers}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return s
}

// Platform implements videos.Adapter.
func (s *httpSource) Platform() engine.Platform { return s.platform }

// get fetches rawURL with the source headers merged under extra.
func (s *httpSource) get(ctx context.Context, rawURL string, extra map[string]string) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	engine.IncrPlatformRequest(s.platform)
	return engine.FetchBytes(ctx, s.client, rawURL, s.merge(extra))
}

func (s *httpSource) postForm(ctx context.Context, rawURL, form string, extra map[string]string) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	engine.IncrPlatformRequest(s.platform)
	return engine.PostForm(ctx, s.client, rawURL, s.merge(extra), form)
}

// getJSON fetches rawURL and decodes the body into v.
func (s *httpSource) getJSON(ctx context.Context, rawURL string, extra map[string]string, v any) error {
	body, err := s.get(ctx, rawURL, extra)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: decode response: %w", s.platform, err)
	}
	return nil
}

func (s *httpSource) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", s.platform, err)
	}
	return nil
}

func (s *httpSource) merge(extra map[string]string) map[string]string {
	h := make(map[string]string, len(s.headers)+len(extra))
	maps.Copy(h, s.headers)
	maps.Copy(h, extra)
	return h
}

// withCookie adds a cookie header when one is configured.
func withCookie(h map[string]string, cookie string) map[string]string {
	if cookie != "" {
		h["cookie"] = cookie
	}
	return h
}

// capRecords truncates records to at most n entries.
func capRecords(records []engine.RawRecord, n int) []engine.RawRecord {
	if n > 0 && len(records) > n {
		return records[:n]
	}
	return records
}
