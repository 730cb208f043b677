package videos

import (
	"encoding/json"
	"testing"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawJSON(t *testing.T, s string) engine.RawRecord {
	t.Helper()
	var r engine.RawRecord
	require.NoError(t, json.Unmarshal([]byte(s), &r))
	return r
}

func TestNormalize_YouTubeDataAPI(t *testing.T) {
	raw := rawJSON(t, `{
		"id": "dQw4w9WgXcQ",
		"snippet": {
			"title": "Python Tutorial &amp; Tips",
			"description": "Learn python",
			"channelId": "UC123",
			"channelTitle": "Corey",
			"publishedAt": "2025-05-04T10:00:00Z",
			"thumbnails": {"high": {"url": "https://i.ytimg.com/vi/x/hq.jpg"}}
		},
		"contentDetails": {"duration": "PT1H2M3S"},
		"statistics": {"viewCount": "12345", "likeCount": "67", "commentCount": "8"}
	}`)
	rec, ok := Normalize(engine.PlatformYouTube, raw)
	require.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", rec.URL)
	assert.Equal(t, "Python Tutorial & Tips", rec.Title)
	assert.Equal(t, engine.Author{ID: "UC123", DisplayName: "Corey"}, rec.Author)
	assert.Equal(t, 3723, rec.DurationSeconds)
	assert.Equal(t, "2025-05-04", rec.UploadDate)
	assert.Equal(t, int64(12345), rec.ViewCount)
	assert.Equal(t, int64(67), rec.LikeCount)
	assert.Equal(t, int64(8), rec.CommentCount)
	assert.Equal(t, "https://i.ytimg.com/vi/x/hq.jpg", rec.ThumbnailURL)
	assert.Nil(t, rec.RelevanceScore)
}

func TestNormalize_YouTubeRenderer(t *testing.T) {
	raw := rawJSON(t, `{
		"videoId": "abc",
		"title": {"runs": [{"text": "Go "}, {"text": "Concurrency"}]},
		"ownerText": {"runs": [{"text": "GopherCon", "navigationEndpoint": {"browseEndpoint": {"browseId": "UCgo"}}}]},
		"lengthText": {"simpleText": "12:05"},
		"viewCountText": {"simpleText": "1,234,567 views"},
		"thumbnail": {"thumbnails": [{"url": "https://i.ytimg.com/a.jpg"}]}
	}`)
	rec, ok := Normalize(engine.PlatformYouTube, raw)
	require.True(t, ok)
	assert.Equal(t, "abc", rec.VideoID)
	assert.Equal(t, "Go Concurrency", rec.Title)
	assert.Equal(t, "UCgo", rec.Author.ID)
	assert.Equal(t, 725, rec.DurationSeconds)
	assert.Equal(t, int64(1234567), rec.ViewCount)
	assert.Empty(t, rec.UploadDate)
}

func TestNormalize_Bilibili(t *testing.T) {
	raw := rawJSON(t, `{
		"bvid": "BV1xx411c7mD",
		"arcurl": "http://www.bilibili.com/video/av170001",
		"title": "<em class=\"keyword\">Python</em> 教程",
		"description": "入门",
		"mid": 42,
		"author": "up主",
		"duration": "10:30",
		"pubdate": 1700000000,
		"play": 25000,
		"like": 300,
		"review": 12,
		"pic": "//i0.hdslb.com/bfs/archive/x.jpg"
	}`)
	rec, ok := Normalize(engine.PlatformBilibili, raw)
	require.True(t, ok)
	assert.Equal(t, "Python 教程", rec.Title)
	assert.Equal(t, "http://www.bilibili.com/video/av170001", rec.URL)
	assert.Equal(t, "42", rec.Author.ID)
	assert.Equal(t, 630, rec.DurationSeconds)
	assert.Equal(t, "2023-11-14", rec.UploadDate)
	assert.Equal(t, int64(25000), rec.ViewCount)
	assert.Equal(t, "https://i0.hdslb.com/bfs/archive/x.jpg", rec.ThumbnailURL)
}

func TestNormalize_BilibiliAidOnly(t *testing.T) {
	raw := rawJSON(t, `{"aid": 170001, "title": "old upload", "play": 10}`)
	rec, ok := Normalize(engine.PlatformBilibili, raw)
	require.True(t, ok)
	assert.Equal(t, "170001", rec.VideoID)
	assert.Equal(t, "https://www.bilibili.com/video/av170001", rec.URL)

	raw = rawJSON(t, `{"bvid": "BV1xx411c7mD", "title": "new upload"}`)
	rec, ok = Normalize(engine.PlatformBilibili, raw)
	require.True(t, ok)
	assert.Equal(t, "https://www.bilibili.com/video/BV1xx411c7mD", rec.URL)
}

func TestNormalize_TikTokBuildsURL(t *testing.T) {
	raw := rawJSON(t, `{
		"id": "7300000000000000000",
		"desc": "python in 60 seconds #coding",
		"createTime": 1700000000,
		"author": {"id": "99", "uniqueId": "coder", "nickname": "The Coder"},
		"video": {"duration": 58, "cover": "https://p16.tiktokcdn.com/c.jpg"},
		"stats": {"playCount": 1500000, "diggCount": 2000, "commentCount": 30, "shareCount": 40}
	}`)
	rec, ok := Normalize(engine.PlatformTikTok, raw)
	require.True(t, ok)
	assert.Equal(t, "https://www.tiktok.com/@coder/video/7300000000000000000", rec.URL)
	assert.Equal(t, "The Coder", rec.Author.DisplayName)
	assert.Equal(t, 58, rec.DurationSeconds)
	assert.Equal(t, int64(40), rec.ShareCount)
}

func TestNormalize_Weibo(t *testing.T) {
	raw := rawJSON(t, `{
		"id": "4900000000000001",
		"text": "学<a href='/n/x'>Python</a>",
		"created_at": "Sat Mar 02 20:15:00 +0800 2024",
		"user": {"id": 7, "screen_name": "微博用户"},
		"attitudes_count": 5,
		"comments_count": 2,
		"reposts_count": 1,
		"page_info": {"title": "Python 视频", "play_count": "1.2万次播放", "media_info": {"duration": 95.4}}
	}`)
	rec, ok := Normalize(engine.PlatformWeibo, raw)
	require.True(t, ok)
	assert.Equal(t, "https://m.weibo.cn/detail/4900000000000001", rec.URL)
	assert.Equal(t, "学 Python", rec.Description)
	assert.Equal(t, "2024-03-02", rec.UploadDate)
	assert.Equal(t, int64(12000), rec.ViewCount)
	assert.Equal(t, 95, rec.DurationSeconds)
	assert.Equal(t, int64(1), rec.ShareCount)
}

func TestNormalize_DropsRecordWithoutURL(t *testing.T) {
	_, ok := Normalize(engine.PlatformFacebook, engine.RawRecord{"title": "no link"})
	assert.False(t, ok)
	_, ok = Normalize(engine.PlatformTikTok, engine.RawRecord{"id": "1"}) // no author to build from
	assert.False(t, ok)
	_, ok = Normalize(engine.PlatformFacebook, engine.RawRecord{"url": "javascript:alert(1)"})
	assert.False(t, ok)
}

func TestNormalize_GenericPlatform(t *testing.T) {
	rec, ok := Normalize("vimeo", engine.RawRecord{
		"id":               "9",
		"url":              "https://vimeo.com/9",
		"title":            "clip",
		"duration_seconds": 42,
		"view_count":       7,
	})
	require.True(t, ok)
	assert.Equal(t, engine.Platform("vimeo"), rec.Platform)
	assert.Equal(t, 42, rec.DurationSeconds)
	assert.Equal(t, int64(7), rec.ViewCount)
}

func TestAsCount(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{nil, 0},
		{float64(12), 12},
		{"1,234", 1234},
		{"1.5M views", 1500000},
		{"3K", 3000},
		{"2亿", 200000000},
		{"-5", 0},
		{"no views", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, asCount(tt.in), "%v", tt.in)
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{float64(61), 61},
		{"1:02:03", 3723},
		{"4:05", 245},
		{"PT15M", 900},
		{"P1DT1S", 86401},
		{"90", 90},
		{"live", 0},
		{float64(1e20), 0},
		{int64(1) << 40, 0},
		{"9223372036854775807:59", 0},
		{"99999999:59:59", 0},
		{"P999999999999DT1S", 0},
	}
	for _, tt := range tests {
		got := asDuration(tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
		assert.GreaterOrEqual(t, got, 0, "%v", tt.in)
	}
}

func TestAsDate(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{float64(1700000000), "2023-11-14"},
		{float64(1700000000000), "2023-11-14"},
		{"2024-01-15", "2024-01-15"},
		{"20240115", "2024-01-15"},
		{"2024-01-15T23:30:00-05:00", "2024-01-15"},
		{"yesterday", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, asDate(tt.in), "%v", tt.in)
	}
}
