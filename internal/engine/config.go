package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	Platforms       []Platform    // enabled registry entries; empty = AllPlatforms
	MaxWorkers      int           // aggregator pool cap
	PlatformTimeout time.Duration // per-platform task bound
	MockData        bool          // register mock adapters instead of live ones
	RateLimit       float64       // requests/second per platform (0 = unlimited)
	ScoreWeights    []float64     // title, description, popularity, recency, duration

	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	BilibiliCookie        string
	TikTokCookie          string
	WeiboCookie           string

	DownloadDir   string
	YtDLPPath     string
	HistoryDBPath string

	FetchTimeout         time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
}

// EnabledPlatforms returns the configured platform set, defaulting to all.
func (c Config) EnabledPlatforms() []Platform {
	if len(c.Platforms) == 0 {
		return AllPlatforms
	}
	return c.Platforms
}

// Client returns the configured HTTP client or a default with FetchTimeout.
func (c Config) Client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
