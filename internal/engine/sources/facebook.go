package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_video/internal/engine"
)

const ddgHTMLBase = "https://html.duckduckgo.com"

// Facebook has no public video search API; results are discovered through
// DuckDuckGo's HTML endpoint restricted to facebook video URLs.
type Facebook struct {
	httpSource
	*YtDLP
	base string
}

// NewFacebook builds the facebook adapter from cfg.
func NewFacebook(cfg engine.Config, dl *YtDLP) *Facebook {
	return &Facebook{
		httpSource: newHTTPSource(engine.PlatformFacebook, cfg, engine.BrowserHeaders("https://html.duckduckgo.com/")),
		YtDLP:      dl,
		base:       ddgHTMLBase,
	}
}

var fbVideoIDRE = regexp.MustCompile(`facebook\.com/(?:[^/?#]+/videos/(?:[^/?#]+/)?|watch/?\?v=|reel/|video\.php\?v=)(\d+)`)

// Search returns {url, title, snippet, video_id} records for facebook video pages.
func (f *Facebook) Search(ctx context.Context, query string, maxResults int) ([]engine.RawRecord, error) {
	form := url.Values{}
	form.Set("q", query+" site:facebook.com (videos OR watch OR reel)")
	form.Set("kl", "wt-wt")
	form.Set("df", "")

	body, err := f.postForm(ctx, f.base+"/html/", form.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("facebook discovery: %w", err)
	}
	records, err := parseFacebookResults(body)
	if err != nil {
		return nil, fmt.Errorf("facebook discovery: %w", err)
	}
	return capRecords(records, maxResults), nil
}

// parseFacebookResults extracts facebook video links from a DDG HTML lite page.
func parseFacebookResults(data []byte) ([]engine.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}

	var out []engine.RawRecord
	doc.Find(".result, .web-result").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.result__a, .result__title a, a.result-link").First()
		title := strings.TrimSpace(link.Text())
		href, ok := link.Attr("href")
		if !ok || title == "" {
			return
		}
		href = ddgUnwrapURL(href)
		m := fbVideoIDRE.FindStringSubmatch(href)
		if m == nil {
			return
		}
		out = append(out, engine.RawRecord{
			"url":      href,
			"video_id": m[1],
			"title":    strings.TrimSuffix(title, " | Facebook"),
			"snippet":  strings.TrimSpace(s.Find(".result__snippet, .result__body").First().Text()),
		})
	})
	return out, nil
}

// ddgUnwrapURL extracts the actual URL from DDG redirect wrappers.
// DDG HTML wraps links as: //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com&rut=...
func ddgUnwrapURL(href string) string {
	if strings.Contains(href, "duckduckgo.com/l/") || strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				return uddg
			}
		}
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
