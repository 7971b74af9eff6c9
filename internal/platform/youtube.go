package platform

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kkdai/youtube/v2"

	"github.com/chronicled/videoscope/internal/media"
)

// YouTube resolves YouTube videos natively: metadata and caption tracks come
// from the player response, stream URLs and downloads from the format list.
type YouTube struct {
	client youtube.Client
	http   *http.Client
	logger *slog.Logger
}

func NewYouTube(logger *slog.Logger) *YouTube {
	return &YouTube{
		client: youtube.Client{},
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Metadata fetches title/uploader/duration without touching the media body.
func (y *YouTube) Metadata(ctx context.Context, rawURL string) (media.VideoMetadata, error) {
	video, err := y.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return media.VideoMetadata{}, fmt.Errorf("youtube metadata: %w", err)
	}
	return media.VideoMetadata{
		Title:       video.Title,
		Uploader:    video.Author,
		UploadDate:  video.PublishDate.Format("20060102"),
		Duration:    video.Duration.Seconds(),
		Description: video.Description,
		ViewCount:   int64(video.Views),
		Channel:     video.Author,
	}, nil
}

// timedtext caption document: <transcript><text start="1.2" dur="3.4">…</text></transcript>
type captionDoc struct {
	XMLName xml.Name      `xml:"transcript"`
	Texts   []captionText `xml:"text"`
}

type captionText struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

// Captions fetches the native caption track for a video ID. Manual tracks are
// preferred over auto-generated ("asr") ones, English over other languages.
func (y *YouTube) Captions(ctx context.Context, videoID string) ([]media.TranscriptSegment, error) {
	video, err := y.client.GetVideoContext(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		return nil, fmt.Errorf("youtube captions: %w", err)
	}
	if len(video.CaptionTracks) == 0 {
		return nil, fmt.Errorf("youtube captions: no caption tracks for %s", videoID)
	}
	track := pickCaptionTrack(video.CaptionTracks)

	var body []byte
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := y.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("caption track returned %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}
	if err := backoff.Retry(fetch, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)); err != nil {
		return nil, fmt.Errorf("youtube captions: %w", err)
	}

	var doc captionDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("youtube captions: decode timedtext: %w", err)
	}
	segments := make([]media.TranscriptSegment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		segments = append(segments, media.TranscriptSegment{
			Text:     text,
			Start:    t.Start,
			Duration: t.Dur,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("youtube captions: track %q is empty", track.LanguageCode)
	}
	return segments, nil
}

func pickCaptionTrack(tracks []youtube.CaptionTrack) youtube.CaptionTrack {
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") && t.Kind != "asr" {
			return t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	for _, t := range tracks {
		if t.Kind != "asr" {
			return t
		}
	}
	return tracks[0]
}

// StreamURL resolves a directly readable stream URL at or below maxHeight.
// A combined (audio+video) format is preferred; a video-only format is the
// fallback since the sampler discards audio anyway.
func (y *YouTube) StreamURL(ctx context.Context, rawURL string, maxHeight int) (string, error) {
	video, err := y.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("youtube stream: %w", err)
	}
	if format := bestFormat(video.Formats.WithAudioChannels(), maxHeight); format != nil {
		u, err := y.client.GetStreamURLContext(ctx, video, format)
		if err == nil && u != "" {
			y.logger.Debug("resolved combined stream", "itag", format.ItagNo, "height", format.Height)
			return u, nil
		}
		y.logger.Warn("combined stream URL failed, trying video-only", "error", err)
	}
	if format := bestVideoOnlyFormat(video.Formats, maxHeight); format != nil {
		u, err := y.client.GetStreamURLContext(ctx, video, format)
		if err != nil {
			return "", fmt.Errorf("youtube stream: video-only format: %w", err)
		}
		y.logger.Debug("resolved video-only stream", "itag", format.ItagNo, "height", format.Height)
		return u, nil
	}
	return "", fmt.Errorf("youtube stream: no usable format under %dp", maxHeight)
}

// Download saves the video to destDir and returns the file path. The download
// is retried once, matching the flakiness of the upstream CDN.
func (y *YouTube) Download(ctx context.Context, rawURL, destDir string, maxHeight int) (string, error) {
	video, err := y.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("youtube download: %w", err)
	}
	format := bestFormat(video.Formats.WithAudioChannels(), maxHeight)
	if format == nil {
		return "", fmt.Errorf("youtube download: no combined format under %dp", maxHeight)
	}
	dest := filepath.Join(destDir, video.ID+".mp4")

	attempt := func() error {
		stream, _, err := y.client.GetStreamContext(ctx, video, format)
		if err != nil {
			return err
		}
		defer stream.Close()
		f, err := os.Create(dest)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()
		_, err = io.Copy(f, stream)
		return err
	}
	if err := backoff.Retry(attempt, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1)); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("youtube download: %w", err)
	}
	return dest, nil
}

func bestFormat(formats youtube.FormatList, maxHeight int) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.Height == 0 || f.Height > maxHeight {
			continue
		}
		if !strings.HasPrefix(f.MimeType, "video/mp4") {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}
	return best
}

func bestVideoOnlyFormat(formats youtube.FormatList, maxHeight int) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels > 0 || f.Height == 0 || f.Height > maxHeight {
			continue
		}
		if !strings.HasPrefix(f.MimeType, "video/") {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}
	return best
}
