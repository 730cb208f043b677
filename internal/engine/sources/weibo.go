package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_video/internal/engine"
)

const weiboMobileBase = "https://m.weibo.cn"

// Weibo searches the mobile site's video container (type=64).
type Weibo struct {
	httpSource
	*YtDLP
	base string
}

// NewWeibo builds the weibo adapter from cfg.
func NewWeibo(cfg engine.Config, dl *YtDLP) *Weibo {
	h := withCookie(engine.BrowserHeaders("https://m.weibo.cn/search"), cfg.WeiboCookie)
	h["x-requested-with"] = "XMLHttpRequest"
	return &Weibo{
		httpSource: newHTTPSource(engine.PlatformWeibo, cfg, h),
		YtDLP:      dl,
		base:       weiboMobileBase,
	}
}

type weiboCard struct {
	CardType  int              `json:"card_type"`
	Mblog     engine.RawRecord `json:"mblog"`
	CardGroup []weiboCard      `json:"card_group"`
}

type weiboResp struct {
	OK   int    `json:"ok"`
	Msg  string `json:"msg"`
	Data struct {
		Cards []weiboCard `json:"cards"`
	} `json:"data"`
}

// Search returns the mblog objects that carry a video page_info.
func (w *Weibo) Search(ctx context.Context, query string, maxResults int) ([]engine.RawRecord, error) {
	params := url.Values{}
	params.Set("containerid", "100103type=64&q="+query)
	params.Set("page_type", "searchall")

	var resp weiboResp
	if err := w.getJSON(ctx, w.base+"/api/container/getIndex?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("weibo search: %w", err)
	}
	if resp.OK != 1 {
		// ok=0 with no message is an empty result page.
		if resp.Msg == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("weibo search: %s", resp.Msg)
	}

	var out []engine.RawRecord
	var collect func(cards []weiboCard)
	collect = func(cards []weiboCard) {
		for _, c := range cards {
			if len(c.CardGroup) > 0 {
				collect(c.CardGroup)
			}
			if c.Mblog == nil || !weiboHasVideo(c.Mblog) {
				continue
			}
			c.Mblog["text"] = weiboPlainText(c.Mblog["text"])
			out = append(out, c.Mblog)
		}
	}
	collect(resp.Data.Cards)
	return capRecords(out, maxResults), nil
}

func weiboHasVideo(mblog engine.RawRecord) bool {
	info, ok := mblog["page_info"].(map[string]any)
	if !ok {
		return false
	}
	t, _ := info["type"].(string)
	return t == "" || t == "video"
}

// weiboPlainText flattens the post's HTML (emoji images, topic links) to text.
func weiboPlainText(v any) string {
	s, _ := v.(string)
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		img.ReplaceWithHtml(alt)
	})
	doc.Find("br").ReplaceWithHtml(" ")
	return strings.TrimSpace(doc.Text())
}
