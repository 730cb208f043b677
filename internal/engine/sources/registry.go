package sources

import (
	"log/slog"
	"slices"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/anatolykoptev/go_video/internal/engine/videos"
)

// Factory builds a live adapter from config. dl is the shared yt-dlp downloader.
type Factory func(cfg engine.Config, dl *YtDLP) videos.Adapter

// Builtin maps each supported platform to its live adapter.
var Builtin = map[engine.Platform]Factory{
	engine.PlatformYouTube:  func(cfg engine.Config, dl *YtDLP) videos.Adapter { return NewYouTube(cfg, dl) },
	engine.PlatformTikTok:   func(cfg engine.Config, dl *YtDLP) videos.Adapter { return NewTikTok(cfg, dl) },
	engine.PlatformBilibili: func(cfg engine.Config, dl *YtDLP) videos.Adapter { return NewBilibili(cfg, dl) },
	engine.PlatformWeibo:    func(cfg engine.Config, dl *YtDLP) videos.Adapter { return NewWeibo(cfg, dl) },
	engine.PlatformFacebook: func(cfg engine.Config, dl *YtDLP) videos.Adapter { return NewFacebook(cfg, dl) },
}

// NewRegistry builds the adapter registry for cfg's enabled platforms, in config order.
// With MockData set every platform gets a deterministic Mock instead.
// Tags without a builtin adapter are logged and skipped.
func NewRegistry(cfg engine.Config) (*videos.Registry, error) {
	dl := &YtDLP{Path: cfg.YtDLPPath, Dir: cfg.DownloadDir}

	var adapters []videos.Adapter
	var seen []engine.Platform
	for _, p := range cfg.EnabledPlatforms() {
		if slices.Contains(seen, p) {
			continue
		}
		seen = append(seen, p)
		factory, ok := Builtin[p]
		if !ok {
			slog.Warn("sources: no adapter for platform, skipping", slog.String("platform", string(p)))
			continue
		}
		if cfg.MockData {
			adapters = append(adapters, NewMock(p, 0))
			continue
		}
		adapters = append(adapters, factory(cfg, dl))
	}
	slog.Info("sources: registry built", slog.Int("adapters", len(adapters)), slog.Bool("mock", cfg.MockData))
	return videos.NewRegistry(adapters...)
}
