package sources

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// mockEpoch anchors generated upload dates so output never depends on the clock.
var mockEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Mock generates deterministic records in the platform's native shape, for
// offline runs and demos (VIDEO_MOCK_DATA).
type Mock struct {
	platform engine.Platform
	perQuery int
}

// NewMock returns a mock adapter producing perQuery records per search.
func NewMock(p engine.Platform, perQuery int) *Mock {
	if perQuery <= 0 {
		perQuery = 5
	}
	return &Mock{platform: p, perQuery: perQuery}
}

func (m *Mock) Platform() engine.Platform { return m.platform }

// Search is a pure function of (platform, query, maxResults).
func (m *Mock) Search(ctx context.Context, query string, maxResults int) ([]engine.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := m.perQuery
	if maxResults > 0 {
		n = min(n, maxResults)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(m.platform) + "\x00" + query))
	seed := h.Sum64()

	out := make([]engine.RawRecord, 0, n)
	for i := range n {
		x := seed ^ uint64(i+1)*0x9e3779b97f4a7c15
		out = append(out, mockRecord(m.platform, query, i, x))
	}
	return out, nil
}

func mockRecord(p engine.Platform, query string, i int, x uint64) engine.RawRecord {
	id := fmt.Sprintf("mock%s%02d%04x", p, i, x&0xffff)
	title := fmt.Sprintf("%s #%d", query, i+1)
	desc := fmt.Sprintf("Mock %s result %d for %q", p, i+1, query)
	views := int64(x%2_000_000) + 100
	duration := int(x>>20%3000) + 30
	uploaded := mockEpoch.AddDate(0, 0, -int(x>>40%365))

	switch p {
	case engine.PlatformYouTube:
		return engine.RawRecord{
			"id": id,
			"snippet": map[string]any{
				"title": title, "description": desc,
				"channelId": "UCmock", "channelTitle": "Mock Channel",
				"publishedAt": uploaded.Format(time.RFC3339),
			},
			"contentDetails": map[string]any{"duration": fmt.Sprintf("PT%dM%dS", duration/60, duration%60)},
			"statistics":     map[string]any{"viewCount": fmt.Sprint(views), "likeCount": fmt.Sprint(views / 50)},
		}
	case engine.PlatformBilibili:
		return engine.RawRecord{
			"bvid": "BV" + id, "title": title, "description": desc,
			"mid": float64(1000 + i), "author": "mock_up",
			"duration": fmt.Sprintf("%d:%02d", duration/60, duration%60),
			"pubdate":  float64(uploaded.Unix()), "play": float64(views), "like": float64(views / 40),
		}
	case engine.PlatformTikTok:
		return engine.RawRecord{
			"id": id, "desc": title, "createTime": float64(uploaded.Unix()),
			"author": map[string]any{"id": "42", "uniqueId": "mockuser", "nickname": "Mock User"},
			"video":  map[string]any{"duration": float64(duration % 180)},
			"stats":  map[string]any{"playCount": float64(views), "diggCount": float64(views / 20), "shareCount": float64(views / 500)},
		}
	case engine.PlatformWeibo:
		return engine.RawRecord{
			"id": id, "text": desc,
			"created_at": uploaded.Format("Mon Jan 02 15:04:05 -0700 2006"),
			"user":       map[string]any{"id": float64(7), "screen_name": "mock_weibo"},
			"page_info": map[string]any{
				"type": "video", "title": title, "play_count": fmt.Sprint(views),
				"media_info": map[string]any{"duration": float64(duration)},
			},
		}
	case engine.PlatformFacebook:
		return engine.RawRecord{
			"url": "https://www.facebook.com/mock/videos/" + fmt.Sprint(x%1e12), "video_id": fmt.Sprint(x % 1e12),
			"title": title, "snippet": desc,
		}
	default:
		return engine.RawRecord{
			"video_id": id, "url": "https://example.com/" + id, "title": title, "description": desc,
			"duration_seconds": duration, "upload_date": uploaded.Format(time.DateOnly), "view_count": views,
		}
	}
}
