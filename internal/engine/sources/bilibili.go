package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/anatolykoptev/go_video/internal/engine"
)

const bilibiliAPIBase = "https://api.bilibili.com"

// Bilibili searches through the web search API. Anonymous requests are
// usually accepted; a logged-in cookie lifts the risk-control throttling.
type Bilibili struct {
	httpSource
	*YtDLP
	base string
}

// NewBilibili builds the bilibili adapter from cfg.
func NewBilibili(cfg engine.Config, dl *YtDLP) *Bilibili {
	h := withCookie(engine.BrowserHeaders("https://search.bilibili.com/"), cfg.BilibiliCookie)
	return &Bilibili{
		httpSource: newHTTPSource(engine.PlatformBilibili, cfg, h),
		YtDLP:      dl,
		base:       bilibiliAPIBase,
	}
}

type bilibiliResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Result []engine.RawRecord `json:"result"`
	} `json:"data"`
}

// Search returns the result items of the first page.
func (b *Bilibili) Search(ctx context.Context, query string, maxResults int) ([]engine.RawRecord, error) {
	params := url.Values{}
	params.Set("search_type", "video")
	params.Set("keyword", query)
	params.Set("page", "1")
	if maxResults > 0 {
		params.Set("page_size", strconv.Itoa(min(maxResults, 50)))
	}

	var resp bilibiliResp
	if err := b.getJSON(ctx, b.base+"/x/web-interface/search/type?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("bilibili search: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("bilibili search: code %d: %s", resp.Code, resp.Message)
	}
	return capRecords(resp.Data.Result, maxResults), nil
}
