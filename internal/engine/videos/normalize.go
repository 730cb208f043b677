package videos

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// fieldMap lists candidate (dotted) keys per VideoRecord field; the first
// non-empty value wins. Numeric path segments index into arrays.
type fieldMap struct {
	id, url, title, description []string
	authorID, authorName        []string
	duration, uploadDate        []string
	views, likes, comments      []string
	shares, thumbnail           []string
	// buildURL synthesizes the watch URL when the record has none.
	buildURL func(id string, raw engine.RawRecord) string
}

var fieldMaps = map[engine.Platform]fieldMap{
	// Data API v3 videos.list items and ytInitialData videoRenderer objects.
	engine.PlatformYouTube: {
		id:          []string{"id", "videoId"},
		url:         []string{"url", "webpage_url"},
		title:       []string{"snippet.title", "title"},
		description: []string{"snippet.description", "descriptionSnippet", "detailedMetadataSnippets.0.snippetText", "description"},
		authorID:    []string{"snippet.channelId", "ownerText.runs.0.navigationEndpoint.browseEndpoint.browseId", "channel_id"},
		authorName:  []string{"snippet.channelTitle", "ownerText", "channel"},
		duration:    []string{"contentDetails.duration", "lengthText", "duration"},
		uploadDate:  []string{"snippet.publishedAt", "upload_date"},
		views:       []string{"statistics.viewCount", "viewCountText", "view_count"},
		likes:       []string{"statistics.likeCount", "like_count"},
		comments:    []string{"statistics.commentCount", "comment_count"},
		shares:      nil,
		thumbnail:   []string{"snippet.thumbnails.high.url", "snippet.thumbnails.default.url", "thumbnail.thumbnails.0.url", "thumbnail"},
		buildURL: func(id string, _ engine.RawRecord) string {
			return "https://www.youtube.com/watch?v=" + id
		},
	},
	// x/web-interface/search/type result items.
	engine.PlatformBilibili: {
		id:          []string{"bvid", "aid"},
		url:         []string{"arcurl"},
		title:       []string{"title"},
		description: []string{"description"},
		authorID:    []string{"mid"},
		authorName:  []string{"author"},
		duration:    []string{"duration"},
		uploadDate:  []string{"pubdate", "senddate"},
		views:       []string{"play"},
		likes:       []string{"like"},
		comments:    []string{"review"},
		shares:      nil,
		thumbnail:   []string{"pic"},
		buildURL: func(id string, _ engine.RawRecord) string {
			if isDigits(id) {
				return "https://www.bilibili.com/video/av" + id
			}
			return "https://www.bilibili.com/video/" + id
		},
	},
	// api/search/item/full item_list entries.
	engine.PlatformTikTok: {
		id:          []string{"id"},
		url:         []string{"share_url"},
		title:       []string{"desc"},
		description: []string{"desc"},
		authorID:    []string{"author.id"},
		authorName:  []string{"author.nickname", "author.uniqueId"},
		duration:    []string{"video.duration"},
		uploadDate:  []string{"createTime"},
		views:       []string{"stats.playCount"},
		likes:       []string{"stats.diggCount"},
		comments:    []string{"stats.commentCount"},
		shares:      []string{"stats.shareCount"},
		thumbnail:   []string{"video.cover", "video.originCover"},
		buildURL: func(id string, raw engine.RawRecord) string {
			user := asString(lookup(raw, "author.uniqueId"))
			if user == "" {
				return ""
			}
			return "https://www.tiktok.com/@" + user + "/video/" + id
		},
	},
	// m.weibo.cn container cards, mblog object.
	engine.PlatformWeibo: {
		id:          []string{"id", "mid"},
		url:         []string{"scheme_url"},
		title:       []string{"page_info.title", "page_info.content1"},
		description: []string{"text"},
		authorID:    []string{"user.id"},
		authorName:  []string{"user.screen_name"},
		duration:    []string{"page_info.media_info.duration"},
		uploadDate:  []string{"created_at"},
		views:       []string{"page_info.play_count", "page_info.media_info.online_users_number"},
		likes:       []string{"attitudes_count"},
		comments:    []string{"comments_count"},
		shares:      []string{"reposts_count"},
		thumbnail:   []string{"page_info.page_pic.url"},
		buildURL: func(id string, _ engine.RawRecord) string {
			return "https://m.weibo.cn/detail/" + id
		},
	},
	// DuckDuckGo-discovered facebook video pages.
	engine.PlatformFacebook: {
		id:          []string{"video_id"},
		url:         []string{"url"},
		title:       []string{"title"},
		description: []string{"snippet"},
		authorName:  []string{"page"},
		duration:    []string{"duration"},
		uploadDate:  []string{"date"},
		views:       []string{"views"},
		thumbnail:   []string{"thumbnail"},
	},
}

// genericFields serves platforms registered without a dedicated table.
var genericFields = fieldMap{
	id:          []string{"video_id", "id"},
	url:         []string{"url"},
	title:       []string{"title"},
	description: []string{"description"},
	authorID:    []string{"author.id", "author_id"},
	authorName:  []string{"author.display_name", "author_name", "author"},
	duration:    []string{"duration_seconds", "duration"},
	uploadDate:  []string{"upload_date"},
	views:       []string{"view_count"},
	likes:       []string{"like_count"},
	comments:    []string{"comment_count"},
	shares:      []string{"share_count"},
	thumbnail:   []string{"thumbnail_url"},
}

// Normalize maps one raw adapter record into the common schema, tagged with platform.
// It reports false when no URL can be determined; such records are dropped.
// The result is unscored.
func Normalize(platform engine.Platform, raw engine.RawRecord) (engine.VideoRecord, bool) {
	fm, ok := fieldMaps[platform]
	if !ok {
		fm = genericFields
	}

	id := asString(first(raw, fm.id))
	link := absURL(asString(first(raw, fm.url)))
	if link == "" && id != "" && fm.buildURL != nil {
		link = fm.buildURL(id, raw)
	}
	if link == "" {
		return engine.VideoRecord{}, false
	}

	rec := engine.VideoRecord{
		Platform:    platform,
		VideoID:     id,
		URL:         link,
		Title:       engine.CleanHTML(asString(first(raw, fm.title))),
		Description: engine.CleanHTML(asString(first(raw, fm.description))),
		Author: engine.Author{
			ID:          asString(first(raw, fm.authorID)),
			DisplayName: engine.CleanHTML(asString(first(raw, fm.authorName))),
		},
		DurationSeconds: asDuration(first(raw, fm.duration)),
		UploadDate:      asDate(first(raw, fm.uploadDate)),
		ViewCount:       asCount(first(raw, fm.views)),
		LikeCount:       asCount(first(raw, fm.likes)),
		CommentCount:    asCount(first(raw, fm.comments)),
		ShareCount:      asCount(first(raw, fm.shares)),
		ThumbnailURL:    absURL(asString(first(raw, fm.thumbnail))),
	}
	return rec, true
}

// --- raw value access ---

// lookup resolves a dotted path through nested maps and arrays.
func lookup(raw engine.RawRecord, path string) any {
	var cur any = map[string]any(raw)
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[seg]
		case engine.RawRecord:
			cur = node[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// first returns the first candidate path holding a non-empty value.
func first(raw engine.RawRecord, paths []string) any {
	for _, p := range paths {
		v := lookup(raw, p)
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// asString renders scalars and YouTube text objects ({simpleText} / {runs:[{text}]}).
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case map[string]any:
		if s, ok := x["simpleText"].(string); ok {
			return strings.TrimSpace(s)
		}
		if runs, ok := x["runs"].([]any); ok {
			return joinRuns(runs)
		}
		if s, ok := x["text"].(string); ok {
			return strings.TrimSpace(s)
		}
	case []any:
		return joinRuns(x)
	}
	return ""
}

func joinRuns(runs []any) string {
	var sb strings.Builder
	for _, r := range runs {
		switch x := r.(type) {
		case map[string]any:
			if t, ok := x["text"].(string); ok {
				sb.WriteString(t)
			}
		case string:
			sb.WriteString(x)
		}
	}
	return strings.TrimSpace(sb.String())
}

var countRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*([kKmMbB万亿]?)`)

// asCount parses view/like counters: numbers, "1,234", "1.2M views", "12万次播放".
func asCount(v any) int64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, _ = x.Float64()
	case string:
		f = parseCount(x)
	default:
		f = parseCount(asString(x))
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(math.Round(f))
}

func parseCount(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || strings.HasPrefix(s, "-") {
		return 0
	}
	m := countRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "k", "K":
		n *= 1e3
	case "m", "M":
		n *= 1e6
	case "b", "B":
		n *= 1e9
	case "万":
		n *= 1e4
	case "亿":
		n *= 1e8
	}
	return n
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// maxDurationSeconds bounds parsed durations; anything larger is treated as unknown.
const maxDurationSeconds = math.MaxInt32

// asDuration parses seconds, "h:mm:ss" / "mm:ss" and ISO-8601 "PT#H#M#S". 0 = unknown.
func asDuration(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		if x <= 0 || math.IsNaN(x) || x > maxDurationSeconds {
			return 0
		}
		return int(math.Round(x))
	case int:
		if x <= 0 || x > maxDurationSeconds {
			return 0
		}
		return x
	case int64:
		if x <= 0 || x > maxDurationSeconds {
			return 0
		}
		return int(x)
	case json.Number:
		f, _ := x.Float64()
		return asDuration(f)
	}
	s := asString(v)
	if s == "" {
		return 0
	}
	if m := isoDurationRe.FindStringSubmatch(s); m != nil && strings.HasPrefix(s, "P") {
		days, _ := strconv.ParseFloat(m[1], 64)
		h, _ := strconv.ParseFloat(m[2], 64)
		mi, _ := strconv.ParseFloat(m[3], 64)
		sec, _ := strconv.ParseFloat(m[4], 64)
		return asDuration(days*86400 + h*3600 + mi*60 + sec)
	}
	if strings.Contains(s, ":") {
		total := 0
		for _, part := range strings.Split(s, ":") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 || total > (maxDurationSeconds-n)/60 {
				return 0
			}
			total = total*60 + n
		}
		return total
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return asDuration(f)
	}
	return 0
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
	"Mon Jan 02 15:04:05 -0700 2006", // Weibo created_at
	time.RFC1123Z,
}

// asDate normalizes unix seconds/millis and common layouts to YYYY-MM-DD. "" = unknown.
func asDate(v any) string {
	var unix float64
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		unix = x
	case int:
		unix = float64(x)
	case int64:
		unix = float64(x)
	case json.Number:
		unix, _ = x.Float64()
	default:
		s := asString(x)
		if s == "" {
			return ""
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(time.DateOnly) // publisher-local calendar date
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || len(s) < 9 {
			return ""
		}
		unix = f
	}
	if unix <= 0 {
		return ""
	}
	if unix > 1e12 { // milliseconds
		unix /= 1000
	}
	return time.Unix(int64(unix), 0).UTC().Format(time.DateOnly)
}

// absURL fixes protocol-relative links ("//i0.hdslb.com/...") and rejects non-http values.
func absURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return s
}
