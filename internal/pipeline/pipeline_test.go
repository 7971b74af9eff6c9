package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/chronicled/videoscope/internal/media"
)

const watchURL = "https://www.youtube.com/watch?v=abc123def45"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

type fakeMetadata struct {
	md  media.VideoMetadata
	err error
}

func (f *fakeMetadata) Metadata(ctx context.Context, url string) (media.VideoMetadata, error) {
	return f.md, f.err
}

type fakeCaptions struct {
	segs  []media.TranscriptSegment
	err   error
	calls int
}

func (f *fakeCaptions) Captions(ctx context.Context, videoID string) ([]media.TranscriptSegment, error) {
	f.calls++
	return f.segs, f.err
}

type fakeMedia struct {
	streamURL   string
	streamErr   error
	downloadErr error
	downloads   int
	lastPath    string
}

func (f *fakeMedia) StreamURL(ctx context.Context, url string) (string, error) {
	return f.streamURL, f.streamErr
}

func (f *fakeMedia) Download(ctx context.Context, url, destDir string) (string, error) {
	f.downloads++
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	path := filepath.Join(destDir, fmt.Sprintf("media-%d.mp4", f.downloads))
	if err := os.WriteFile(path, []byte("fake media"), 0644); err != nil {
		return "", err
	}
	f.lastPath = path
	return path, nil
}

type fakeTranscriber struct {
	segs  []media.TranscriptSegment
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) ([]media.TranscriptSegment, error) {
	f.calls++
	return f.segs, f.err
}

type fakeSampler struct {
	frames   []media.Frame
	err      error
	lastOpts media.SampleOptions
	sources  []string
}

func (f *fakeSampler) Sample(ctx context.Context, source string, opts media.SampleOptions) ([]media.Frame, error) {
	f.sources = append(f.sources, source)
	f.lastOpts = opts
	return f.frames, f.err
}

type fakeGeneration struct {
	result  *media.AnalysisResult
	err     error
	lastReq *media.AnalysisRequest
}

func (f *fakeGeneration) Analyze(ctx context.Context, req *media.AnalysisRequest) (*media.AnalysisResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeArtifacts struct {
	frameFiles     []string
	transcriptFile string
}

func (f *fakeArtifacts) SaveFrames(frames []media.Frame, title, runID string) ([]string, error) {
	names := make([]string, len(frames))
	for i := range frames {
		names[i] = fmt.Sprintf("frame_%d.jpg", i)
	}
	f.frameFiles = names
	return names, nil
}

func (f *fakeArtifacts) SaveTranscript(text, title, runID string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	f.transcriptFile = "transcript.txt"
	return f.transcriptFile, nil
}

type deps struct {
	metadata    *fakeMetadata
	captions    *fakeCaptions
	media       *fakeMedia
	transcriber *fakeTranscriber
	sampler     *fakeSampler
	generation  *fakeGeneration
	artifacts   *fakeArtifacts
}

func newTestPipeline(t *testing.T, d *deps) *Pipeline {
	t.Helper()
	return New(Deps{
		Metadata:    d.metadata,
		Captions:    d.captions,
		Media:       d.media,
		Transcriber: d.transcriber,
		Sampler:     d.sampler,
		Generation:  d.generation,
		Artifacts:   d.artifacts,
	}, Config{TempDir: t.TempDir(), FrameInterval: 30, MaxFrames: 20}, testLogger())
}

func defaultDeps() *deps {
	return &deps{
		metadata: &fakeMetadata{md: media.VideoMetadata{Title: "Talk", Uploader: "Chan", Duration: 600}},
		captions: &fakeCaptions{segs: []media.TranscriptSegment{
			{Text: "hello", Start: 0, Duration: 10},
			{Text: "world", Start: 40, Duration: 10},
		}},
		media:       &fakeMedia{streamURL: "https://cdn.example/stream.mp4"},
		transcriber: &fakeTranscriber{},
		sampler: &fakeSampler{frames: []media.Frame{
			{Data: []byte{1}, Timestamp: 0, Label: "0:00"},
			{Data: []byte{2}, Timestamp: 30, Label: "0:30"},
		}},
		generation: &fakeGeneration{result: &media.AnalysisResult{Summary: "a summary"}},
		artifacts:  &fakeArtifacts{},
	}
}

// Captions and a working stream URL: frames come from the stream and
// nothing is ever downloaded.
func TestAnalyzeVideoCaptionsAndStream(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	p := newTestPipeline(t, d)

	result, err := p.AnalyzeVideo(context.Background(), watchURL, Options{})
	assert.NoError(err)

	assert.Equal(0, d.media.downloads)
	assert.Equal([]string{"https://cdn.example/stream.mp4"}, d.sampler.sources)
	assert.Equal(0, d.transcriber.calls)

	assert.Equal("hello world", result.Transcript)
	assert.True(result.HasVisualAnalysis)
	assert.Len(result.Frames, 2)
	assert.LessOrEqual(len(result.Frames), 20)
	assert.Equal("a summary", result.Analysis.Summary)
	assert.Equal([]string{"frame_0.jpg", "frame_1.jpg"}, result.FrameFiles)
	assert.Equal("transcript.txt", result.TranscriptFile)

	// Generation saw the real transcript and metadata.
	assert.Equal("hello world", d.generation.lastReq.Transcript)
	assert.Equal("Talk", d.generation.lastReq.Title)
	assert.Equal(watchURL, d.generation.lastReq.SourceURL)
	assert.Equal(media.ModeLong, d.generation.lastReq.Mode)
}

// No captions and frames skipped: exactly one download feeds speech-to-text,
// no frames are sampled, and the temp file is gone when the run returns.
func TestAnalyzeVideoSpeechToTextFallback(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	d.captions.err = fmt.Errorf("no caption tracks")
	d.transcriber.segs = []media.TranscriptSegment{
		{Text: "spoken words", Start: 0, Duration: 5},
	}
	p := newTestPipeline(t, d)

	result, err := p.AnalyzeVideo(context.Background(), watchURL, Options{SkipFrames: true})
	assert.NoError(err)

	assert.Equal(1, d.media.downloads)
	assert.Equal(1, d.transcriber.calls)
	assert.Empty(d.sampler.sources)
	assert.Equal("spoken words", result.Transcript)
	assert.False(result.HasVisualAnalysis)
	assert.Empty(result.Frames)

	_, statErr := os.Stat(d.media.lastPath)
	assert.True(os.IsNotExist(statErr), "downloaded media should be cleaned up")
}

// No captions, frames wanted: a single download serves both speech-to-text
// and frame sampling.
func TestAnalyzeVideoSharedDownload(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	d.captions.err = fmt.Errorf("no caption tracks")
	d.transcriber.segs = []media.TranscriptSegment{{Text: "speech", Start: 0, Duration: 5}}
	p := newTestPipeline(t, d)

	result, err := p.AnalyzeVideo(context.Background(), watchURL, Options{})
	assert.NoError(err)

	assert.Equal(1, d.media.downloads)
	assert.Equal(1, d.transcriber.calls)
	assert.Equal([]string{d.media.lastPath}, d.sampler.sources)
	assert.Equal("speech", result.Transcript)
	assert.True(result.HasVisualAnalysis)

	_, statErr := os.Stat(d.media.lastPath)
	assert.True(os.IsNotExist(statErr))
}

// A time window restricts captions and is forwarded to the sampler and the
// generation request.
func TestAnalyzeVideoTimeWindow(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	d.captions.segs = []media.TranscriptSegment{
		{Text: "before", Start: 0, Duration: 10},
		{Text: "inside", Start: 45, Duration: 10},
		{Text: "after", Start: 120, Duration: 10},
	}
	p := newTestPipeline(t, d)

	result, err := p.AnalyzeVideo(context.Background(), watchURL, Options{
		StartTime: ptr(30),
		EndTime:   ptr(90),
	})
	assert.NoError(err)

	assert.Equal("inside", result.Transcript)
	assert.Len(result.Segments, 1)

	assert.NotNil(d.sampler.lastOpts.Start)
	assert.NotNil(d.sampler.lastOpts.End)
	assert.Equal(30.0, *d.sampler.lastOpts.Start)
	assert.Equal(90.0, *d.sampler.lastOpts.End)

	assert.Equal("[Segment analyzed: 0:30 - 1:30]", d.generation.lastReq.TimeRangeNote)
}

// The temp directory is created on demand, so the stream-to-download
// fallback works on a fresh install where nothing has made it yet.
func TestAnalyzeVideoDownloadFallbackCreatesTempDir(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	d.media.streamErr = fmt.Errorf("no stream")
	p := New(Deps{
		Metadata:    d.metadata,
		Captions:    d.captions,
		Media:       d.media,
		Transcriber: d.transcriber,
		Sampler:     d.sampler,
		Generation:  d.generation,
		Artifacts:   d.artifacts,
	}, Config{
		TempDir:       filepath.Join(t.TempDir(), "downloads", "tmp"),
		FrameInterval: 30,
		MaxFrames:     20,
	}, testLogger())

	result, err := p.AnalyzeVideo(context.Background(), watchURL, Options{})
	assert.NoError(err)

	assert.Equal(1, d.media.downloads)
	assert.True(result.HasVisualAnalysis)
	assert.Equal([]string{d.media.lastPath}, d.sampler.sources)

	_, statErr := os.Stat(d.media.lastPath)
	assert.True(os.IsNotExist(statErr))
}

// Stream yields no frames: the pipeline falls through to the download rung.
func TestAnalyzeVideoStreamFallsThroughToDownload(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	d.sampler.frames = nil
	p := newTestPipeline(t, d)

	result, err := p.AnalyzeVideo(context.Background(), watchURL, Options{})
	assert.NoError(err)

	assert.Equal(1, d.media.downloads)
	assert.Len(d.sampler.sources, 2)
	assert.False(result.HasVisualAnalysis)

	_, statErr := os.Stat(d.media.lastPath)
	assert.True(os.IsNotExist(statErr))
}

// Every acquisition stage failing still produces an analysis with the
// transcript placeholder; only generation errors are fatal.
func TestAnalyzeVideoDegradesToPlaceholder(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	d.metadata.err = fmt.Errorf("metadata fetch failed")
	d.metadata.md = media.VideoMetadata{}
	d.captions.err = fmt.Errorf("no caption tracks")
	d.media.streamErr = fmt.Errorf("no stream")
	d.media.downloadErr = fmt.Errorf("download blocked")
	p := newTestPipeline(t, d)

	result, err := p.AnalyzeVideo(context.Background(), watchURL, Options{})
	assert.NoError(err)
	assert.Equal("[Transcript unavailable for: "+watchURL+"]", result.Transcript)
	assert.False(result.HasVisualAnalysis)
	assert.NotNil(result.Analysis)
}

func TestAnalyzeVideoGenerationErrorIsFatal(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	d.generation.err = fmt.Errorf("model not loaded")
	p := newTestPipeline(t, d)

	_, err := p.AnalyzeVideo(context.Background(), watchURL, Options{})
	assert.Error(err)
	assert.Contains(err.Error(), "video analysis")
	assert.Contains(err.Error(), "model not loaded")
}

func TestFetchMetadataOnly(t *testing.T) {
	assert := assert_.New(t)

	d := defaultDeps()
	p := newTestPipeline(t, d)

	result, err := p.FetchMetadataOnly(context.Background(), watchURL)
	assert.NoError(err)
	assert.Equal("Talk", result.Metadata.Title)
	assert.Equal("hello world", result.Transcript)
	assert.Nil(result.Analysis)
	assert.Equal(0, d.media.downloads)
}

func TestBuildTimeRangeNote(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("", buildTimeRangeNote(nil, nil))
	assert.Equal("[Segment analyzed: 0:30 - end]", buildTimeRangeNote(ptr(30), nil))
	assert.Equal("[Segment analyzed: 0:00 - 2:00]", buildTimeRangeNote(nil, ptr(120)))
	assert.Equal("[Segment analyzed: 1:00:00 - 1:30:00]", buildTimeRangeNote(ptr(3600), ptr(5400)))
}
