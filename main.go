// go_video is a multi-platform video search MCP server.
//
// Exposes video_search, video_download and video_history over MCP. Searches fan out to
// YouTube, TikTok, Bilibili, Weibo and Facebook and come back as one ranked list.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/anatolykoptev/go_video/internal/engine/sources"
	"github.com/anatolykoptev/go_video/internal/engine/videos"
	"github.com/anatolykoptev/go_video/internal/videoserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8892")
)

func main() {
	cfg := initEngine()

	slog.Info("starting go_video",
		slog.String("port", mcpPort),
		slog.Bool("mock", cfg.MockData),
	)

	reg, err := sources.NewRegistry(cfg)
	if err != nil {
		slog.Error("registry init failed", slog.Any("error", err))
		os.Exit(1)
	}

	var hist *videos.History
	if cfg.HistoryDBPath != "" {
		hist, err = videos.OpenHistory(cfg.HistoryDBPath)
		if err != nil {
			slog.Warn("history init failed, running without history", slog.Any("error", err))
		} else {
			defer hist.Close()
			slog.Info("history initialized", slog.String("path", cfg.HistoryDBPath))
		}
	}

	weights := videos.DefaultWeights
	if len(cfg.ScoreWeights) > 0 {
		if w, werr := videos.WeightsFromSlice(cfg.ScoreWeights); werr != nil {
			slog.Warn("invalid VIDEO_SCORE_WEIGHTS, using defaults", slog.Any("error", werr))
		} else {
			weights = w
		}
	}
	mgr, err := videos.NewManager(reg, videos.Options{
		MaxWorkers:      cfg.MaxWorkers,
		PlatformTimeout: cfg.PlatformTimeout,
		Weights:         weights,
		History:         hist,
	})
	if err != nil {
		slog.Error("manager init failed", slog.Any("error", err))
		os.Exit(1)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_video",
		Version: version,
	}, nil)

	n := videoserver.RegisterTools(server, videoserver.Deps{
		Manager:     mgr,
		History:     hist,
		DownloadDir: cfg.DownloadDir,
	})
	slog.Info("tools registered", slog.Int("count", n))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_video",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() engine.Config {
	c := engine.Config{
		Platforms:             engine.ParsePlatforms(env.List("VIDEO_PLATFORMS", "")),
		MaxWorkers:            env.Int("VIDEO_MAX_WORKERS", videos.DefaultMaxWorkers),
		PlatformTimeout:       env.Duration("VIDEO_PLATFORM_TIMEOUT", videos.DefaultPlatformTimeout),
		MockData:              envFlag("VIDEO_MOCK_DATA"),
		RateLimit:             env.Float("VIDEO_RATE_LIMIT", 2),
		ScoreWeights:          parseWeights(env.List("VIDEO_SCORE_WEIGHTS", "")),
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		BilibiliCookie:        env.Str("BILIBILI_COOKIE", ""),
		TikTokCookie:          env.Str("TIKTOK_COOKIE", ""),
		WeiboCookie:           env.Str("WEIBO_COOKIE", ""),
		DownloadDir:           env.Str("DOWNLOAD_DIR", "downloads"),
		YtDLPPath:             env.Str("YTDLP_PATH", ""),
		HistoryDBPath:         env.Str("HISTORY_DB_PATH", "data/history.db"),
		FetchTimeout:          env.Duration("FETCH_TIMEOUT", 15*time.Second),
		CacheMaxEntries:       env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval:  env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	}
	c.HTTPClient = &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	return c
}

func envFlag(key string) bool {
	switch strings.ToLower(env.Str(key, "")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// parseWeights reads the title,description,popularity,recency,duration weights.
// Nil means defaults.
func parseWeights(vals []string) []float64 {
	if len(vals) == 0 {
		return nil
	}
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			slog.Warn("VIDEO_SCORE_WEIGHTS: bad value, using defaults", slog.String("value", v))
			return nil
		}
		out = append(out, f)
	}
	return out
}
