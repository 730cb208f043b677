package engine

import (
	"html"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRunsRe = regexp.MustCompile(`\s+`)
)

// CleanHTML strips HTML tags, unescapes entities and collapses whitespace.
// Bilibili wraps query hits in <em class="keyword">, Weibo posts carry links and emoji <img>.
func CleanHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRunsRe.ReplaceAllString(s, " "))
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (CJK titles from Bilibili/Weibo).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// DetectPlatform guesses the platform tag from a video URL. Returns "" when unknown.
func DetectPlatform(rawURL string) Platform {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "youtube.com/") || strings.Contains(u, "youtu.be/"):
		return PlatformYouTube
	case strings.Contains(u, "tiktok.com/"):
		return PlatformTikTok
	case strings.Contains(u, "bilibili.com/") || strings.Contains(u, "b23.tv/"):
		return PlatformBilibili
	case strings.Contains(u, "weibo.com/") || strings.Contains(u, "weibo.cn/"):
		return PlatformWeibo
	case strings.Contains(u, "facebook.com/") || strings.Contains(u, "fb.watch/"):
		return PlatformFacebook
	}
	return ""
}
