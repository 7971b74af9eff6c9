// Package stt runs the local speech-to-text fallback used when a video has
// no native captions. It shells out to the whisper CLI, which needs a fully
// downloaded media file rather than a stream.
package stt

import (
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

// Whisper transcribes a local media file with the whisper CLI.
type Whisper struct {
	bin    string
	model  string
	logger *slog.Logger
}

func NewWhisper(bin, model string, logger *slog.Logger) *Whisper {
	if bin == "" {
		bin = "whisper"
	}
	if model == "" {
		model = "base"
	}
	return &Whisper{bin: bin, model: model, logger: logger}
}

// Available reports whether the whisper binary can be found.
func (w *Whisper) Available() bool {
	_, err := exec.LookPath(w.bin)
	return err == nil
}

type whisperOutput struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs whisper against mediaPath and returns timed segments.
// Failures surface as errors; the caller decides how to degrade.
func (w *Whisper) Transcribe(ctx context.Context, mediaPath string) ([]media.TranscriptSegment, error) {
	if !w.Available() {
		return nil, fmt.Errorf("whisper: binary %q not found", w.bin)
	}
	outDir, err := os.MkdirTemp("", "videoscope-whisper-")
	if err != nil {
		return nil, fmt.Errorf("whisper: temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, w.bin,
		mediaPath,
		"--model", w.model,
		"--output_format", "json",
		"--output_dir", outDir,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %v\nOutput: %s", err, string(output))
	}

	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	data, err := os.ReadFile(filepath.Join(outDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("whisper: read result: %w", err)
	}
	return ParseOutput(data)
}

// ParseOutput decodes whisper's JSON result into transcript segments.
func ParseOutput(data []byte) ([]media.TranscriptSegment, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("whisper: decode result: %w", err)
	}
	segments := make([]media.TranscriptSegment, 0, len(out.Segments))
	for _, s := range out.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, media.TranscriptSegment{
			Text:     text,
			Start:    s.Start,
			Duration: s.End - s.Start,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("whisper: no speech segments")
	}
	return segments, nil
}
