// Package videoserver exposes the video aggregator as MCP tools.
package videoserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/anatolykoptev/go_video/internal/engine/videos"
	"github.com/anatolykoptev/go_video/internal/toolutil"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	maxResultsCap       = 50
	descriptionMaxRunes = 500
)

// Deps are the services the tools call into.
type Deps struct {
	Manager     *videos.Manager
	History     *videos.History // optional; video_history is skipped when nil
	DownloadDir string
}

// RegisterTools registers video_search, video_download and (with history) video_history.
// It returns the number of registered tools.
func RegisterTools(server *mcp.Server, d Deps) int {
	registerVideoSearch(server, d)
	registerVideoDownload(server, d)
	if d.History == nil {
		return 2
	}
	registerVideoHistory(server, d)
	return 3
}

func registerVideoSearch(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_search",
		Description: "Search videos across YouTube, TikTok, Bilibili, Weibo and Facebook in parallel. Returns one list ranked by relevance (title/description match, views, recency, duration) with per-platform status. Optional filters: duration_range [min,max] seconds, upload_date_range [start,end] YYYY-MM-DD, min_views, filter_platforms.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.VideoSearchInput) (*mcp.CallToolResult, engine.VideoSearchOutput, error) {
		out, err := SearchVideos(ctx, d, input)
		return nil, out, err
	})
}

// SearchVideos runs one video_search call: cache lookup, aggregate search, cache store,
// output shaping. Cache hits get a fresh search id and are logged to history like live
// searches.
func SearchVideos(ctx context.Context, d Deps, input engine.VideoSearchInput) (engine.VideoSearchOutput, error) {
	maxResults := toolutil.ClampInt(input.MaxResults, videos.DefaultMaxResults, maxResultsCap)
	cacheKey := toolutil.SearchCacheKey(input, maxResults)
	if !input.NoCache {
		if out, ok := engine.CacheLoadJSON[engine.VideoSearchOutput](ctx, cacheKey); ok {
			out.SearchID = uuid.NewString()
			if d.History != nil {
				if err := d.History.RecordSearch(ctx, out); err != nil {
					slog.Warn("video_search: history write failed", slog.Any("error", err))
				}
			}
			return shapeOutput(out, input.Limit), nil
		}
	}

	out, err := d.Manager.SearchVideos(ctx, videos.SearchRequest{
		Query:                 input.Query,
		Platforms:             toolutil.NormPlatforms(input.Platforms),
		MaxResultsPerPlatform: maxResults,
		Filter:                input.Filter(),
	})
	if err != nil {
		return engine.VideoSearchOutput{}, fmt.Errorf("video_search: %w", err)
	}

	// Partial results are not cached so a transient platform failure is retried next call.
	if out.Total > 0 && allOK(out.Platforms) {
		engine.CacheStoreJSON(ctx, cacheKey, out)
	}
	slog.Info("video_search: done",
		slog.String("query", out.Query), slog.Int("total", out.Total), slog.Int("platforms", len(out.Platforms)))
	return shapeOutput(out, input.Limit), nil
}

func allOK(statuses []engine.PlatformStatus) bool {
	for _, st := range statuses {
		if !st.OK {
			return false
		}
	}
	return true
}

// shapeOutput applies the overall limit and shortens long descriptions.
func shapeOutput(out engine.VideoSearchOutput, limit int) engine.VideoSearchOutput {
	vids := out.Videos
	if limit > 0 && len(vids) > limit {
		vids = vids[:limit]
	}
	shaped := make([]engine.VideoRecord, len(vids))
	for i, v := range vids {
		v.Description = engine.TruncateRunes(v.Description, descriptionMaxRunes, "...")
		shaped[i] = v
	}
	out.Videos = shaped
	out.Total = len(shaped)
	return out
}
