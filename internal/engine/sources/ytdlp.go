package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrYtDLPMissing is returned when no yt-dlp binary is configured or found on PATH.
var ErrYtDLPMissing = errors.New("yt-dlp binary not found")

var unsafeFilename = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// YtDLP downloads videos by shelling out to yt-dlp. It is shared by every live adapter.
type YtDLP struct {
	Path string // binary; empty = look up "yt-dlp" on PATH
	Dir  string // default output directory
}

// Download writes videoURL under outputDir (or d.Dir) and returns the final file path.
// filename, when set, replaces yt-dlp's "<id>.<ext>" naming; the extension is kept.
func (d *YtDLP) Download(ctx context.Context, videoURL, outputDir, filename string) (string, error) {
	bin, err := d.binary()
	if err != nil {
		return "", err
	}
	if outputDir == "" {
		outputDir = d.Dir
	}
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return "", fmt.Errorf("yt-dlp: mkdir %s: %w", outputDir, err)
	}

	name := "%(id)s"
	if f := sanitizeFilename(filename); f != "" {
		name = f
	}
	template := filepath.Join(outputDir, name+".%(ext)s")

	cmd := exec.CommandContext(ctx, bin,
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"-o", template,
		"--print", "after_move:filepath",
		videoURL,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 300 {
			msg = msg[len(msg)-300:]
		}
		return "", fmt.Errorf("yt-dlp: %w: %s", err, msg)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	path := strings.TrimSpace(lines[len(lines)-1])
	if path == "" {
		return "", errors.New("yt-dlp: no output path reported")
	}
	return path, nil
}

func (d *YtDLP) binary() (string, error) {
	if d.Path != "" {
		return d.Path, nil
	}
	p, err := exec.LookPath("yt-dlp")
	if err != nil {
		return "", ErrYtDLPMissing
	}
	return p, nil
}

// sanitizeFilename strips path separators and the extension from a caller-supplied name.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.Trim(unsafeFilename.ReplaceAllString(name, "_"), "_.")
}
