package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/anatolykoptev/go_video/internal/engine"
)

const tiktokWebBase = "https://www.tiktok.com"

// TikTok searches through the web app's search endpoint, which needs a session cookie
// for most regions.
type TikTok struct {
	httpSource
	*YtDLP
	base string
}

// NewTikTok builds the tiktok adapter from cfg.
func NewTikTok(cfg engine.Config, dl *YtDLP) *TikTok {
	h := withCookie(engine.BrowserHeaders("https://www.tiktok.com/search"), cfg.TikTokCookie)
	return &TikTok{
		httpSource: newHTTPSource(engine.PlatformTikTok, cfg, h),
		YtDLP:      dl,
		base:       tiktokWebBase,
	}
}

type tiktokResp struct {
	StatusCode int                `json:"status_code"`
	StatusMsg  string             `json:"status_msg"`
	ItemList   []engine.RawRecord `json:"item_list"`
}

// Search returns item_list entries.
func (t *TikTok) Search(ctx context.Context, query string, maxResults int) ([]engine.RawRecord, error) {
	count := maxResults
	if count <= 0 || count > 30 {
		count = 30
	}
	params := url.Values{}
	params.Set("aid", "1988")
	params.Set("keyword", query)
	params.Set("offset", "0")
	params.Set("count", strconv.Itoa(count))

	var resp tiktokResp
	if err := t.getJSON(ctx, t.base+"/api/search/item/full/?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("tiktok search: %w", err)
	}
	if resp.StatusCode != 0 {
		return nil, fmt.Errorf("tiktok search: status %d: %s", resp.StatusCode, resp.StatusMsg)
	}
	return capRecords(resp.ItemList, maxResults), nil
}
