package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chronicled/videoscope/internal/media"
	"github.com/chronicled/videoscope/internal/transcript"
)

// descriptionCap bounds how much of the (sometimes enormous) video
// description is carried through the pipeline.
const descriptionCap = 2000

// Resolver fronts the per-platform clients with the pipeline's contract:
// metadata never fails (degrade-not-fail), stream resolution walks the
// cheapest-first ladder, and downloads land in the caller's directory.
type Resolver struct {
	youtube   *YouTube
	ytdlp     *YtDlp
	maxHeight int
	logger    *slog.Logger
}

func NewResolver(youtube *YouTube, ytdlp *YtDlp, maxHeight int, logger *slog.Logger) *Resolver {
	if maxHeight <= 0 {
		maxHeight = 720
	}
	return &Resolver{youtube: youtube, ytdlp: ytdlp, maxHeight: maxHeight, logger: logger}
}

// Metadata is best-effort: any failure yields an empty-but-valid value, since
// missing metadata must never block transcript or frame acquisition.
func (r *Resolver) Metadata(ctx context.Context, rawURL string) (media.VideoMetadata, error) {
	var md media.VideoMetadata
	var err error
	if ExtractVideoID(rawURL) != "" {
		md, err = r.youtube.Metadata(ctx, rawURL)
		if err != nil {
			r.logger.Warn("native metadata failed, falling back to yt-dlp", "error", err)
			md, err = r.ytdlp.Metadata(ctx, rawURL)
		}
	} else {
		md, err = r.ytdlp.Metadata(ctx, rawURL)
	}
	if err != nil {
		r.logger.Warn("metadata extraction failed", "url", rawURL, "error", err)
		return media.VideoMetadata{}, nil
	}
	md.Description = transcript.Cap(md.Description, descriptionCap)
	return md, nil
}

// Captions fetches the native caption track for a YouTube video ID.
func (r *Resolver) Captions(ctx context.Context, videoID string) ([]media.TranscriptSegment, error) {
	return r.youtube.Captions(ctx, videoID)
}

// StreamURL resolves something the frame sampler can read without a local
// download. YouTube goes through the native client; everything else through
// yt-dlp.
func (r *Resolver) StreamURL(ctx context.Context, rawURL string) (string, error) {
	if ExtractVideoID(rawURL) != "" {
		u, err := r.youtube.StreamURL(ctx, rawURL, r.maxHeight)
		if err == nil {
			return u, nil
		}
		r.logger.Warn("native stream resolution failed, falling back to yt-dlp", "error", err)
	}
	u, err := r.ytdlp.StreamURL(ctx, rawURL, r.maxHeight)
	if err != nil {
		return "", fmt.Errorf("stream resolution: %w", err)
	}
	return u, nil
}

// Download fetches the full media file into destDir and returns its path.
// The caller owns the file and is responsible for deleting it.
func (r *Resolver) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	if ExtractVideoID(rawURL) != "" {
		path, err := r.youtube.Download(ctx, rawURL, destDir, r.maxHeight)
		if err == nil {
			return path, nil
		}
		r.logger.Warn("native download failed, falling back to yt-dlp", "error", err)
	}
	path, err := r.ytdlp.Download(ctx, rawURL, destDir, r.maxHeight)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	return path, nil
}
