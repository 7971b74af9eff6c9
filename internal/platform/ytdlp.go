package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chronicled/videoscope/internal/media"
)

// YtDlp shells out to the yt-dlp binary. It covers the non-YouTube platforms
// (vimeo, dailymotion) and doubles as the fallback when the native YouTube
// client cannot resolve a video.
type YtDlp struct {
	bin    string
	logger *slog.Logger
}

func NewYtDlp(bin string, logger *slog.Logger) *YtDlp {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &YtDlp{bin: bin, logger: logger}
}

// ytdlpInfo is the subset of `yt-dlp -J` output the pipeline cares about.
type ytdlpInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	UploadDate  string  `json:"upload_date"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
	ViewCount   int64   `json:"view_count"`
	Channel     string  `json:"channel"`
	Ext         string  `json:"ext"`
}

// Metadata runs `yt-dlp -J --skip-download`, which never touches the media body.
func (y *YtDlp) Metadata(ctx context.Context, rawURL string) (media.VideoMetadata, error) {
	out, err := y.run(ctx, "-J", "--skip-download", "--no-warnings", "--no-playlist", rawURL)
	if err != nil {
		return media.VideoMetadata{}, fmt.Errorf("yt-dlp metadata: %w", err)
	}
	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return media.VideoMetadata{}, fmt.Errorf("yt-dlp metadata: decode: %w", err)
	}
	return media.VideoMetadata{
		Title:       info.Title,
		Uploader:    info.Uploader,
		UploadDate:  info.UploadDate,
		Duration:    info.Duration,
		Description: info.Description,
		ViewCount:   info.ViewCount,
		Channel:     info.Channel,
	}, nil
}

// StreamURL resolves a direct stream URL with `yt-dlp -g`, preferring a
// combined mp4 at or below maxHeight so the sampler can read it without
// merging separate streams.
func (y *YtDlp) StreamURL(ctx context.Context, rawURL string, maxHeight int) (string, error) {
	selector := fmt.Sprintf("best[height<=%d][ext=mp4]/best[height<=%d]", maxHeight, maxHeight)
	out, err := y.run(ctx, "-g", "-f", selector, "--no-warnings", "--no-playlist", rawURL)
	if err != nil {
		return "", fmt.Errorf("yt-dlp stream: %w", err)
	}
	// -g prints one URL per requested stream; the first line is the video.
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", fmt.Errorf("yt-dlp stream: empty URL for %s", rawURL)
	}
	return lines[0], nil
}

// Download fetches the full media file into destDir and returns its path.
func (y *YtDlp) Download(ctx context.Context, rawURL, destDir string, maxHeight int) (string, error) {
	selector := fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", maxHeight, maxHeight)
	template := filepath.Join(destDir, "%(id)s.%(ext)s")
	_, err := y.run(ctx,
		"-f", selector,
		"-o", template,
		"--merge-output-format", "mp4",
		"--no-warnings", "--no-playlist", "--quiet",
		rawURL,
	)
	if err != nil {
		return "", fmt.Errorf("yt-dlp download: %w", err)
	}
	// Ask yt-dlp which filename the template produced, then normalize to the
	// merged .mp4 extension.
	out, err := y.run(ctx, "--print", "filename", "-o", template, "--no-warnings", "--no-playlist", rawURL)
	if err != nil {
		return "", fmt.Errorf("yt-dlp download: resolve filename: %w", err)
	}
	name := strings.TrimSpace(string(out))
	path := strings.TrimSuffix(name, filepath.Ext(name)) + ".mp4"
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("yt-dlp download: file not created: %s", path)
	}
	return path, nil
}

func (y *YtDlp) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, y.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %v: %s", y.bin, args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
