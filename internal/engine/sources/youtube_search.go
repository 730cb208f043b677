package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// YouTube search: Data API v3 when a key is configured, ytInitialData scraping otherwise.

const (
	ytDataAPIBase       = "https://www.googleapis.com/youtube/v3"
	ytWebBase           = "https://www.youtube.com"
	ytInitialDataMarker = "var ytInitialData = "
	ytSearchFilter      = "EgIQAQ%3D%3D" // videos-only filter param
	ytMaxPageSize       = 50
)

var videoIDRE = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// extractVideoID pulls the 11-char video ID from any YouTube URL format.
func extractVideoID(rawURL string) string {
	m := videoIDRE.FindStringSubmatch(rawURL)
	if len(m) >= 2 {
		return m[1]
	}
	return ""
}

// YouTube is the youtube adapter.
type YouTube struct {
	httpSource
	*YtDLP
	keys    []string
	apiBase string
	webBase string
}

// NewYouTube builds the youtube adapter from cfg.
func NewYouTube(cfg engine.Config, dl *YtDLP) *YouTube {
	var keys []string
	for _, k := range []string{cfg.YouTubeAPIKey, cfg.YouTubeAPIKeyFallback} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return &YouTube{
		httpSource: newHTTPSource(engine.PlatformYouTube, cfg, map[string]string{"Accept-Language": "en-US,en;q=0.9"}),
		YtDLP:      dl,
		keys:       keys,
		apiBase:    ytDataAPIBase,
		webBase:    ytWebBase,
	}
}

// Search returns Data API video items, or videoRenderer objects when scraping.
func (y *YouTube) Search(ctx context.Context, query string, maxResults int) ([]engine.RawRecord, error) {
	if maxResults <= 0 || maxResults > ytMaxPageSize {
		maxResults = ytMaxPageSize
	}
	if len(y.keys) > 0 {
		return y.searchDataAPI(ctx, query, maxResults)
	}
	return y.searchInitialData(ctx, query, maxResults)
}

// searchDataAPI tries each configured key in order; a quota error on the primary
// moves on to the fallback.
func (y *YouTube) searchDataAPI(ctx context.Context, query string, limit int) ([]engine.RawRecord, error) {
	var lastErr error
	for i, key := range y.keys {
		records, err := y.doDataSearch(ctx, query, limit, key)
		if err == nil {
			return records, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i+1 < len(y.keys) {
			slog.Debug("youtube data API key failed, trying fallback", slog.Any("error", err))
		}
	}
	return nil, lastErr
}

type ytSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type ytVideosResp struct {
	Items []engine.RawRecord `json:"items"`
}

func (y *YouTube) doDataSearch(ctx context.Context, query string, limit int, key string) ([]engine.RawRecord, error) {
	params := url.Values{}
	params.Set("part", "id")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("key", key)

	var search ytSearchResp
	if err := y.getJSON(ctx, y.apiBase+"/search?"+params.Encode(), nil, &search); err != nil {
		return nil, fmt.Errorf("youtube data API search: %w", err)
	}
	ids := make([]string, 0, len(search.Items))
	for _, it := range search.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// search.list carries no statistics; videos.list fills them in, in id order.
	params = url.Values{}
	params.Set("part", "snippet,statistics,contentDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", key)
	var videos ytVideosResp
	if err := y.getJSON(ctx, y.apiBase+"/videos?"+params.Encode(), nil, &videos); err != nil {
		return nil, fmt.Errorf("youtube data API videos: %w", err)
	}
	return capRecords(videos.Items, limit), nil
}

// searchInitialData scrapes the results page and walks ytInitialData for videoRenderer entries.
func (y *YouTube) searchInitialData(ctx context.Context, query string, limit int) ([]engine.RawRecord, error) {
	searchURL := y.webBase + "/results?search_query=" + url.QueryEscape(query) + "&sp=" + ytSearchFilter
	body, err := y.get(ctx, searchURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	})
	if err != nil {
		return nil, fmt.Errorf("youtube search page: %w", err)
	}

	idx := bytes.Index(body, []byte(ytInitialDataMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialData not found in YouTube search response")
	}
	jsonData := extractJSON(body[idx+len(ytInitialDataMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialData JSON")
	}
	var root any
	if err := json.Unmarshal(jsonData, &root); err != nil {
		return nil, fmt.Errorf("decode ytInitialData: %w", err)
	}
	return extractVideoRenderers(root, limit), nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// extractVideoRenderers walks decoded ytInitialData depth-first and returns the
// videoRenderer objects in page order.
func extractVideoRenderers(root any, limit int) []engine.RawRecord {
	var results []engine.RawRecord
	var walk func(v any)
	walk = func(v any) {
		if len(results) >= limit {
			return
		}
		switch node := v.(type) {
		case map[string]any:
			if vr, ok := node["videoRenderer"].(map[string]any); ok {
				if id, _ := vr["videoId"].(string); id != "" {
					results = append(results, engine.RawRecord(vr))
				}
				return
			}
			// Map order is random; visit keys sorted so page order is stable.
			for _, k := range slices.Sorted(maps.Keys(node)) {
				walk(node[k])
			}
		case []any:
			for _, item := range node {
				walk(item)
			}
		}
	}
	walk(root)
	return results
}

// Download rejects non-video YouTube URLs before handing off to yt-dlp.
func (y *YouTube) Download(ctx context.Context, videoURL, outputDir, filename string) (string, error) {
	if extractVideoID(videoURL) == "" {
		return "", fmt.Errorf("youtube: no video id in %q", videoURL)
	}
	return y.YtDLP.Download(ctx, videoURL, outputDir, filename)
}
