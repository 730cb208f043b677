package videoserver

import (
	"context"
	"errors"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerVideoDownload(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_download",
		Description: "Download a video by URL with yt-dlp into the server's download directory. The platform is detected from the URL when not given. Returns the written file path.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.VideoDownloadInput) (*mcp.CallToolResult, *engine.VideoDownloadOutput, error) {
		if input.URL == "" {
			return nil, nil, errors.New("url is required")
		}
		p := engine.ParsePlatform(input.Platform)
		if p == "" {
			p = engine.DetectPlatform(input.URL)
		}
		path, err := d.Manager.Download(ctx, p, input.URL, d.DownloadDir, input.Filename)
		if err != nil {
			return nil, nil, err
		}
		return nil, &engine.VideoDownloadOutput{Platform: p, URL: input.URL, Path: path}, nil
	})
}
