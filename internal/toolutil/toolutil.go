// Package toolutil provides shared helpers for the go_video MCP tools.
package toolutil

import (
	"slices"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// NormPlatforms maps tool-supplied platform tags to engine platforms.
// Empty input yields nil, meaning every registered platform.
func NormPlatforms(tags []string) []engine.Platform {
	ps := engine.ParsePlatforms(tags)
	if len(ps) == 0 {
		return nil
	}
	return ps
}

// ClampInt returns def when v <= 0, and hi when v exceeds it.
func ClampInt(v, def, hi int) int {
	if v <= 0 {
		return def
	}
	return min(v, hi)
}

// SearchCacheKey derives the cache key of a video_search call. Platform lists are
// sorted so equivalent requests share an entry.
func SearchCacheKey(in engine.VideoSearchInput, maxResults int) string {
	platforms := sortedTags(in.Platforms)
	filterPlatforms := sortedTags(in.FilterPlatforms)
	minViews := ""
	if in.MinViews != nil {
		minViews = strconv.FormatInt(*in.MinViews, 10)
	}
	return engine.CacheKey("video_search",
		strings.ToLower(strings.TrimSpace(in.Query)),
		platforms,
		strconv.Itoa(maxResults),
		joinInts(in.DurationRange),
		strings.Join(in.UploadDateRange, ","),
		minViews,
		filterPlatforms,
	)
}

func sortedTags(tags []string) string {
	ps := engine.ParsePlatforms(tags)
	s := make([]string, len(ps))
	for i, p := range ps {
		s[i] = string(p)
	}
	slices.Sort(s)
	return strings.Join(slices.Compact(s), ",")
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}
