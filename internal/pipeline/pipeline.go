// Package pipeline orchestrates the video analysis run: metadata, transcript
// acquisition (captions, then speech-to-text), frame sampling, the
// multi-modal generation call, artifact persistence, and temp-file cleanup.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/chronicled/videoscope/internal/media"
	"github.com/chronicled/videoscope/internal/platform"
	"github.com/chronicled/videoscope/internal/transcript"
)

// Collaborator interfaces. platform.Resolver satisfies the first three;
// the split keeps each one fakeable in tests.

type MetadataResolver interface {
	Metadata(ctx context.Context, url string) (media.VideoMetadata, error)
}

type CaptionSource interface {
	Captions(ctx context.Context, videoID string) ([]media.TranscriptSegment, error)
}

type MediaSource interface {
	StreamURL(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url, destDir string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, path string) ([]media.TranscriptSegment, error)
}

type FrameSampler interface {
	Sample(ctx context.Context, source string, opts media.SampleOptions) ([]media.Frame, error)
}

type GenerationClient interface {
	Analyze(ctx context.Context, req *media.AnalysisRequest) (*media.AnalysisResult, error)
}

type ArtifactStore interface {
	SaveFrames(frames []media.Frame, title, runID string) ([]string, error)
	SaveTranscript(text, title, runID string) (string, error)
}

// Config bounds one run's acquisition work.
type Config struct {
	TempDir       string
	FrameInterval float64
	MaxFrames     int
}

func (c Config) withDefaults() Config {
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = 30
	}
	if c.MaxFrames <= 0 {
		c.MaxFrames = 20
	}
	return c
}

// Deps wires the pipeline's collaborators.
type Deps struct {
	Metadata    MetadataResolver
	Captions    CaptionSource
	Media       MediaSource
	Transcriber Transcriber
	Sampler     FrameSampler
	Generation  GenerationClient
	Artifacts   ArtifactStore
}

type Pipeline struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

func New(deps Deps, cfg Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{deps: deps, cfg: cfg.withDefaults(), logger: logger}
}

// Options selects what one analysis run does.
type Options struct {
	Mode        media.Mode
	SkipFrames  bool
	StartTime   *float64
	EndTime     *float64
	SearchFocus string
}

// Result is the outcome of AnalyzeVideo (or, partially, FetchMetadataOnly).
type Result struct {
	RunID             string                    `json:"run_id"`
	Analysis          *media.AnalysisResult     `json:"analysis,omitempty"`
	Metadata          media.VideoMetadata       `json:"metadata"`
	Transcript        string                    `json:"transcript"`
	Segments          []media.TranscriptSegment `json:"segments,omitempty"`
	Frames            []media.Frame             `json:"frames,omitempty"`
	HasVisualAnalysis bool                      `json:"has_visual_analysis"`
	FrameFiles        []string                  `json:"frame_files,omitempty"`
	TranscriptFile    string                    `json:"transcript_file,omitempty"`
}

// AnalyzeVideo runs the full pipeline for one URL. Acquisition stages degrade
// rather than fail; only the generation call (and sequencing errors) surface
// as errors. Any downloaded media file is removed before the run returns,
// on every path.
func (p *Pipeline) AnalyzeVideo(ctx context.Context, url string, opts Options) (*Result, error) {
	if opts.Mode == "" {
		opts.Mode = media.ModeLong
	}
	r := &run{id: uuid.New().String(), logger: p.logger}
	defer r.cleanup()

	logger := p.logger.With("run", shortID(r.id), "url", url)
	logger.Info("starting video analysis", "mode", opts.Mode, "skip_frames", opts.SkipFrames)

	timeRangeNote := buildTimeRangeNote(opts.StartTime, opts.EndTime)
	if timeRangeNote != "" {
		logger.Info("restricting analysis window", "range", timeRangeNote)
	}

	metadata := p.resolveMetadata(ctx, url, logger)
	segments, transcriptText := p.acquireCaptions(ctx, url, opts, logger)

	var frames []media.Frame
	if opts.SkipFrames {
		logger.Info("skipping frame extraction")
		if transcriptText == "" {
			segments, transcriptText = p.speechToText(ctx, url, r, opts, logger)
		}
	} else if transcriptText != "" {
		frames = p.sampleFromCheapestSource(ctx, url, r, opts, logger)
	} else {
		// No captions: the download serves both speech-to-text and sampling.
		path := p.download(ctx, url, r, logger)
		if path != "" {
			segments, transcriptText = p.transcribeFile(ctx, path, logger)
			frames = p.sample(ctx, path, opts, logger)
		}
	}
	if transcriptText == "" {
		transcriptText = transcript.Placeholder(titleOrURL(metadata, url))
	}

	logger.Info("invoking analysis", "frames", len(frames), "transcript_chars", len(transcriptText))
	analysis, err := p.deps.Generation.Analyze(ctx, &media.AnalysisRequest{
		Transcript:    transcriptText,
		Frames:        frames,
		Title:         metadata.Title,
		Uploader:      metadata.Uploader,
		SourceURL:     url,
		Mode:          opts.Mode,
		TimeRangeNote: timeRangeNote,
		SearchFocus:   opts.SearchFocus,
	})
	if err != nil {
		return nil, fmt.Errorf("video analysis: %w", err)
	}

	result := &Result{
		RunID:             r.id,
		Analysis:          analysis,
		Metadata:          metadata,
		Transcript:        transcriptText,
		Segments:          segments,
		Frames:            frames,
		HasVisualAnalysis: len(frames) > 0,
	}
	p.persistArtifacts(result, logger)
	logger.Info("analysis complete", "frames", len(frames))
	return result, nil
}

// FetchMetadataOnly runs the metadata and caption stages; the generation
// service is never invoked.
func (p *Pipeline) FetchMetadataOnly(ctx context.Context, url string) (*Result, error) {
	logger := p.logger.With("url", url)
	metadata := p.resolveMetadata(ctx, url, logger)

	var segments []media.TranscriptSegment
	transcriptText := ""
	if videoID := platform.ExtractVideoID(url); videoID != "" {
		segs, err := p.deps.Captions.Captions(ctx, videoID)
		if err != nil {
			logger.Warn("captions not available", "error", err)
		} else {
			segments = segs
			transcriptText = transcript.Join(segs)
		}
	}
	return &Result{
		Metadata:   metadata,
		Transcript: transcriptText,
		Segments:   segments,
	}, nil
}

func (p *Pipeline) resolveMetadata(ctx context.Context, url string, logger *slog.Logger) media.VideoMetadata {
	metadata, err := p.deps.Metadata.Metadata(ctx, url)
	if err != nil {
		logger.Warn("metadata extraction failed", "error", err)
		return media.VideoMetadata{}
	}
	return metadata
}

// acquireCaptions is tier one of transcript acquisition: platform captions,
// filtered to the requested window.
func (p *Pipeline) acquireCaptions(ctx context.Context, url string, opts Options, logger *slog.Logger) ([]media.TranscriptSegment, string) {
	videoID := platform.ExtractVideoID(url)
	if videoID == "" {
		return nil, ""
	}
	segs, err := p.deps.Captions.Captions(ctx, videoID)
	if err != nil {
		logger.Warn("native captions not available", "error", err)
		return nil, ""
	}
	segs = transcript.FilterWindow(segs, opts.StartTime, opts.EndTime)
	logger.Info("acquired native captions", "segments", len(segs))
	return segs, transcript.Join(segs)
}

// speechToText is tier two: download the media and run the local model.
func (p *Pipeline) speechToText(ctx context.Context, url string, r *run, opts Options, logger *slog.Logger) ([]media.TranscriptSegment, string) {
	path := p.download(ctx, url, r, logger)
	if path == "" {
		return nil, ""
	}
	return p.transcribeFile(ctx, path, logger)
}

func (p *Pipeline) transcribeFile(ctx context.Context, path string, logger *slog.Logger) ([]media.TranscriptSegment, string) {
	logger.Info("running speech-to-text", "path", path)
	segs, err := p.deps.Transcriber.Transcribe(ctx, path)
	if err != nil {
		logger.Warn("speech-to-text failed", "error", err)
		return nil, ""
	}
	return segs, transcript.Join(segs)
}

// frameSource is one rung of the acquisition ladder: try it, and fall
// through when it yields nothing.
type frameSource struct {
	name    string
	resolve func(ctx context.Context) (string, error)
}

// sampleFromCheapestSource walks the ordered acquisition strategies: a direct
// stream URL first (no local storage), then a full download.
func (p *Pipeline) sampleFromCheapestSource(ctx context.Context, url string, r *run, opts Options, logger *slog.Logger) []media.Frame {
	sources := []frameSource{
		{name: "stream", resolve: func(ctx context.Context) (string, error) {
			return p.deps.Media.StreamURL(ctx, url)
		}},
		{name: "download", resolve: func(ctx context.Context) (string, error) {
			if err := os.MkdirAll(p.cfg.TempDir, 0755); err != nil {
				return "", fmt.Errorf("create temp dir: %w", err)
			}
			path, err := p.deps.Media.Download(ctx, url, p.cfg.TempDir)
			if err == nil {
				r.adopt(path)
			}
			return path, err
		}},
	}
	for _, src := range sources {
		location, err := src.resolve(ctx)
		if err != nil {
			logger.Warn("frame source unavailable", "source", src.name, "error", err)
			continue
		}
		frames := p.sample(ctx, location, opts, logger)
		if len(frames) > 0 {
			logger.Info("sampled frames", "source", src.name, "count", len(frames))
			return frames
		}
		logger.Warn("frame source yielded no frames, falling through", "source", src.name)
	}
	return nil
}

func (p *Pipeline) sample(ctx context.Context, source string, opts Options, logger *slog.Logger) []media.Frame {
	frames, err := p.deps.Sampler.Sample(ctx, source, media.SampleOptions{
		Interval:  p.cfg.FrameInterval,
		MaxFrames: p.cfg.MaxFrames,
		Start:     opts.StartTime,
		End:       opts.EndTime,
	})
	if err != nil {
		logger.Warn("frame sampling failed", "error", err)
		return nil
	}
	return frames
}

func (p *Pipeline) download(ctx context.Context, url string, r *run, logger *slog.Logger) string {
	if err := os.MkdirAll(p.cfg.TempDir, 0755); err != nil {
		logger.Warn("could not create temp dir", "error", err)
		return ""
	}
	logger.Info("downloading media", "dir", p.cfg.TempDir)
	path, err := p.deps.Media.Download(ctx, url, p.cfg.TempDir)
	if err != nil {
		logger.Warn("media download failed", "error", err)
		return ""
	}
	r.adopt(path)
	return path
}

func (p *Pipeline) persistArtifacts(result *Result, logger *slog.Logger) {
	frameFiles, err := p.deps.Artifacts.SaveFrames(result.Frames, result.Metadata.Title, result.RunID)
	if err != nil {
		logger.Warn("failed to persist frames", "error", err)
	}
	result.FrameFiles = frameFiles

	transcriptFile, err := p.deps.Artifacts.SaveTranscript(result.Transcript, result.Metadata.Title, result.RunID)
	if err != nil {
		logger.Warn("failed to persist transcript", "error", err)
	}
	result.TranscriptFile = transcriptFile
}

func buildTimeRangeNote(start, end *float64) string {
	if start == nil && end == nil {
		return ""
	}
	from := 0.0
	if start != nil {
		from = *start
	}
	to := "end"
	if end != nil {
		to = media.FormatTimestamp(*end)
	}
	return fmt.Sprintf("[Segment analyzed: %s - %s]", media.FormatTimestamp(from), to)
}

func titleOrURL(md media.VideoMetadata, url string) string {
	if md.Title != "" {
		return md.Title
	}
	return url
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
