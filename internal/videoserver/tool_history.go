package videoserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/anatolykoptev/go_video/internal/engine/videos"
	"github.com/anatolykoptev/go_video/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// VideoHistoryOutput is the output of video_history.
type VideoHistoryOutput struct {
	Kind      string                 `json:"kind"`
	Searches  []videos.SearchEntry   `json:"searches,omitempty"`
	Downloads []videos.DownloadEntry `json:"downloads,omitempty"`
}

func registerVideoHistory(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_history",
		Description: "List recent video searches or download attempts from the local history (SQLite), newest first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.VideoHistoryInput) (*mcp.CallToolResult, *VideoHistoryOutput, error) {
		out, err := listHistory(ctx, d.History, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func listHistory(ctx context.Context, h *videos.History, input engine.VideoHistoryInput) (*VideoHistoryOutput, error) {
	limit := toolutil.ClampInt(input.Limit, 20, 100)
	switch kind := strings.ToLower(strings.TrimSpace(input.Kind)); kind {
	case "", "searches":
		rows, err := h.ListSearches(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &VideoHistoryOutput{Kind: "searches", Searches: rows}, nil
	case "downloads":
		rows, err := h.ListDownloads(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &VideoHistoryOutput{Kind: "downloads", Downloads: rows}, nil
	default:
		return nil, fmt.Errorf("video_history: unknown kind %q (valid: searches, downloads)", kind)
	}
}
