package engine

import "strings"

// --- Platforms ---

// Platform is the tag of a supported video platform.
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformTikTok   Platform = "tiktok"
	PlatformBilibili Platform = "bilibili"
	PlatformWeibo    Platform = "weibo"
	PlatformFacebook Platform = "facebook"
)

// AllPlatforms lists every supported platform in registration order.
var AllPlatforms = []Platform{
	PlatformYouTube,
	PlatformTikTok,
	PlatformBilibili,
	PlatformWeibo,
	PlatformFacebook,
}

// ParsePlatform lowercases and trims a platform tag. It does not check support.
func ParsePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

// ParsePlatforms maps ParsePlatform over tags, skipping blanks.
func ParsePlatforms(tags []string) []Platform {
	out := make([]Platform, 0, len(tags))
	for _, t := range tags {
		if p := ParsePlatform(t); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- Records ---

// RawRecord is a single adapter result keyed by platform-native field names.
// Values are whatever the platform's JSON decoded to (string, float64, nested maps).
type RawRecord map[string]any

// Author identifies the uploader of a video.
type Author struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// VideoRecord is the normalized shape every platform result is mapped into.
type VideoRecord struct {
	Platform        Platform `json:"platform"`
	VideoID         string   `json:"video_id"`
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Author          Author   `json:"author"`
	DurationSeconds int      `json:"duration_seconds"`       // 0 = unknown
	UploadDate      string   `json:"upload_date,omitempty"` // YYYY-MM-DD, empty = unknown
	ViewCount       int64    `json:"view_count"`
	LikeCount       int64    `json:"like_count"`
	CommentCount    int64    `json:"comment_count"`
	ShareCount      int64    `json:"share_count"`
	ThumbnailURL    string   `json:"thumbnail_url,omitempty"`
	RelevanceScore  *float64 `json:"relevance_score,omitempty"` // nil until scored
}

// Score returns the relevance score, or 0 for an unscored record.
func (v VideoRecord) Score() float64 {
	if v.RelevanceScore == nil {
		return 0
	}
	return *v.RelevanceScore
}

// Key identifies a record within its platform for deduplication.
func (v VideoRecord) Key() string {
	if v.VideoID != "" {
		return string(v.Platform) + ":" + v.VideoID
	}
	return string(v.Platform) + ":" + v.URL
}

// --- Filtering ---

// FilterSpec is the caller-supplied set of post-filters. Absent fields impose no constraint.
type FilterSpec struct {
	DurationRange   []int    `json:"duration_range,omitempty" jsonschema:"Inclusive [min_seconds, max_seconds]"`
	UploadDateRange []string `json:"upload_date_range,omitempty" jsonschema:"Inclusive [start, end] ISO dates (YYYY-MM-DD)"`
	MinViews        *int64   `json:"min_views,omitempty" jsonschema:"Minimum view count"`
	Platforms       []string `json:"platforms,omitempty" jsonschema:"Platform allow-list"`
}

// IsZero reports whether no predicate is present.
func (f FilterSpec) IsZero() bool {
	return f.DurationRange == nil && f.UploadDateRange == nil && f.MinViews == nil && f.Platforms == nil
}

// --- Aggregate output ---

// PlatformStatus reports how one platform contributed to a search.
type PlatformStatus struct {
	Platform  Platform `json:"platform"`
	OK        bool     `json:"ok"`
	Error     string   `json:"error,omitempty"`
	Count     int      `json:"count"`
	ElapsedMS int64    `json:"elapsed_ms"`
}

// VideoSearchOutput is the ranked result of one aggregate search.
type VideoSearchOutput struct {
	SearchID  string           `json:"search_id"`
	Query     string           `json:"query"`
	Total     int              `json:"total"`
	Videos    []VideoRecord    `json:"videos"`
	Platforms []PlatformStatus `json:"platforms"`
}

// --- Tool inputs ---

type VideoSearchInput struct {
	Query           string   `json:"query" jsonschema:"Search query"`
	Platforms       []string `json:"platforms,omitempty" jsonschema:"Platforms to search: youtube, tiktok, bilibili, weibo, facebook (default: all enabled)"`
	MaxResults      int      `json:"max_results_per_platform,omitempty" jsonschema:"Results requested from each platform (default 10, max 50)"`
	Limit           int      `json:"limit,omitempty" jsonschema:"Overall cap applied after ranking (0 = no cap)"`
	DurationRange   []int    `json:"duration_range,omitempty" jsonschema:"Inclusive [min_seconds, max_seconds]"`
	UploadDateRange []string `json:"upload_date_range,omitempty" jsonschema:"Inclusive [start, end] ISO dates"`
	MinViews        *int64   `json:"min_views,omitempty" jsonschema:"Minimum view count"`
	FilterPlatforms []string `json:"filter_platforms,omitempty" jsonschema:"Keep only these platforms in the ranked output"`
	NoCache         bool     `json:"no_cache,omitempty" jsonschema:"Bypass the result cache"`
}

// Filter extracts the FilterSpec part of the input; nil when no filter field is set.
func (in VideoSearchInput) Filter() *FilterSpec {
	f := FilterSpec{
		DurationRange:   in.DurationRange,
		UploadDateRange: in.UploadDateRange,
		MinViews:        in.MinViews,
		Platforms:       in.FilterPlatforms,
	}
	if f.IsZero() {
		return nil
	}
	return &f
}

type VideoDownloadInput struct {
	URL      string `json:"url" jsonschema:"Video URL as returned by video_search"`
	Platform string `json:"platform,omitempty" jsonschema:"Platform tag (detected from the URL when empty)"`
	Filename string `json:"filename,omitempty" jsonschema:"Output file name without extension"`
}

type VideoDownloadOutput struct {
	Platform Platform `json:"platform"`
	URL      string   `json:"url"`
	Path     string   `json:"path"`
}

type VideoHistoryInput struct {
	Kind  string `json:"kind,omitempty" jsonschema:"searches (default) or downloads"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max rows (default 20, max 100)"`
}
