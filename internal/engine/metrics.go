package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	Searches         atomic.Int64
	AdapterFailures  atomic.Int64
	AdapterTimeouts  atomic.Int64
	Downloads        atomic.Int64
	DownloadErrors   atomic.Int64
	YouTubeRequests  atomic.Int64
	TikTokRequests   atomic.Int64
	BilibiliRequests atomic.Int64
	WeiboRequests    atomic.Int64
	FacebookRequests atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"searches":          metrics.Searches.Load(),
		"adapter_failures":  metrics.AdapterFailures.Load(),
		"adapter_timeouts":  metrics.AdapterTimeouts.Load(),
		"downloads":         metrics.Downloads.Load(),
		"download_errors":   metrics.DownloadErrors.Load(),
		"youtube_requests":  metrics.YouTubeRequests.Load(),
		"tiktok_requests":   metrics.TikTokRequests.Load(),
		"bilibili_requests": metrics.BilibiliRequests.Load(),
		"weibo_requests":    metrics.WeiboRequests.Load(),
		"facebook_requests": metrics.FacebookRequests.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"searches", "adapter_failures", "adapter_timeouts",
		"downloads", "download_errors",
		"youtube_requests", "tiktok_requests", "bilibili_requests",
		"weibo_requests", "facebook_requests",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrSearches()        { metrics.Searches.Add(1) }
func IncrAdapterFailures() { metrics.AdapterFailures.Add(1) }
func IncrAdapterTimeouts() { metrics.AdapterTimeouts.Add(1) }
func IncrDownloads()       { metrics.Downloads.Add(1) }
func IncrDownloadErrors()  { metrics.DownloadErrors.Add(1) }

// IncrPlatformRequest counts one outbound request to a platform.
func IncrPlatformRequest(p Platform) {
	switch p {
	case PlatformYouTube:
		metrics.YouTubeRequests.Add(1)
	case PlatformTikTok:
		metrics.TikTokRequests.Add(1)
	case PlatformBilibili:
		metrics.BilibiliRequests.Add(1)
	case PlatformWeibo:
		metrics.WeiboRequests.Add(1)
	case PlatformFacebook:
		metrics.FacebookRequests.Add(1)
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
