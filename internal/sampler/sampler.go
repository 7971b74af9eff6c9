// Package sampler extracts a bounded, time-ordered set of still frames from
// a media source (direct stream URL or local file) via ffmpeg.
package sampler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/chronicled/videoscope/internal/media"
)

// Sampler drives ffmpeg/ffprobe subprocesses. An unreadable source yields an
// empty frame list, not an error.
type Sampler struct {
	ffmpeg       string
	ffprobe      string
	maxDimension int
	logger       *slog.Logger
}

func New(logger *slog.Logger) *Sampler {
	return &Sampler{
		ffmpeg:       "ffmpeg",
		ffprobe:      "ffprobe",
		maxDimension: 1024,
		logger:       logger,
	}
}

// Sample extracts frames at the requested cadence. When the source duration
// is known each frame is seeked directly; otherwise frames are read
// sequentially at the cadence until the end of the window or MaxFrames.
func (s *Sampler) Sample(ctx context.Context, source string, opts media.SampleOptions) ([]media.Frame, error) {
	if opts.MaxFrames <= 0 || opts.Interval <= 0 {
		return nil, nil
	}
	info, err := s.probe(ctx, source)
	if err != nil {
		s.logger.Warn("could not open media source, skipping frames", "error", err)
		return nil, nil
	}
	if info.duration > 0 {
		return s.sampleSeek(ctx, source, info.duration, opts), nil
	}
	s.logger.Debug("duration unknown, reading frames sequentially")
	return s.sampleSequential(ctx, source, opts)
}

type probeInfo struct {
	fps      float64
	frames   int64
	duration float64
}

type ffprobeOutput struct {
	Streams []struct {
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
		Duration   string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (s *Sampler) probe(ctx context.Context, source string) (probeInfo, error) {
	cmd := exec.CommandContext(ctx, s.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,nb_frames,duration",
		"-show_entries", "format=duration",
		"-of", "json",
		source,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return probeInfo{}, fmt.Errorf("ffprobe: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return probeInfo{}, fmt.Errorf("ffprobe: decode: %w", err)
	}
	if len(out.Streams) == 0 {
		return probeInfo{}, fmt.Errorf("ffprobe: no video stream in %.100s", source)
	}

	info := probeInfo{fps: parseFraction(out.Streams[0].RFrameRate)}
	if info.fps <= 0 {
		info.fps = 30
	}
	info.frames, _ = strconv.ParseInt(out.Streams[0].NbFrames, 10, 64)
	info.duration, _ = strconv.ParseFloat(out.Streams[0].Duration, 64)
	if info.duration <= 0 {
		info.duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	}
	if info.duration <= 0 && info.frames > 0 {
		info.duration = float64(info.frames) / info.fps
	}
	return info, nil
}

// parseFraction handles ffprobe rates like "30000/1001" or "25/1".
func parseFraction(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// sampleSeek extracts one frame per planned timestamp with a direct seek.
func (s *Sampler) sampleSeek(ctx context.Context, source string, duration float64, opts media.SampleOptions) []media.Frame {
	stamps := planTimestamps(duration, opts.Interval, opts.MaxFrames, opts.Start, opts.End)
	frames := make([]media.Frame, 0, len(stamps))
	for _, ts := range stamps {
		data, err := s.extractAt(ctx, source, ts)
		if err != nil || len(data) == 0 {
			s.logger.Warn("frame extraction stopped", "timestamp", ts, "error", err)
			break
		}
		frames = append(frames, media.Frame{
			Data:      data,
			Timestamp: ts,
			Label:     media.FormatTimestamp(ts),
		})
	}
	return frames
}

func (s *Sampler) extractAt(ctx context.Context, source string, ts float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.ffmpeg,
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", ts),
		"-i", source,
		"-frames:v", "1",
		"-vf", s.scaleFilter(),
		"-q:v", "5",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg seek %.1fs: %v: %s", ts, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// sampleSequential reads frames at the cadence from a source whose duration
// is unknown (a pure stream with no seek support).
func (s *Sampler) sampleSequential(ctx context.Context, source string, opts media.SampleOptions) ([]media.Frame, error) {
	start := 0.0
	if opts.Start != nil && *opts.Start > 0 {
		start = *opts.Start
	}
	args := []string{"-v", "error"}
	if start > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", start))
	}
	args = append(args,
		"-i", source,
		"-vf", fmt.Sprintf("fps=1/%g,%s", opts.Interval, s.scaleFilter()),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	cmd := exec.CommandContext(ctx, s.ffmpeg, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		s.logger.Warn("could not start ffmpeg for sequential sampling", "error", err)
		return nil, nil
	}

	var frames []media.Frame
	scanErr := scanJPEGs(stdout, func(data []byte) bool {
		ts := start + float64(len(frames))*opts.Interval
		if opts.End != nil && ts >= *opts.End {
			return false
		}
		frames = append(frames, media.Frame{
			Data:      data,
			Timestamp: ts,
			Label:     media.FormatTimestamp(ts),
		})
		return len(frames) < opts.MaxFrames
	})

	// Stop ffmpeg once we have what we need; a short read is expected here.
	cmd.Process.Kill()
	cmd.Wait()
	if scanErr != nil && len(frames) == 0 {
		s.logger.Warn("sequential frame read failed", "error", scanErr)
	}
	return frames, nil
}

func (s *Sampler) scaleFilter() string {
	return fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease", s.maxDimension, s.maxDimension)
}
