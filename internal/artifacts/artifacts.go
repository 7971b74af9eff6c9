// Package artifacts writes sampled frames and transcripts to durable storage
// under filesystem-safe, run-qualified names.
package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/chronicled/videoscope/internal/media"
)

const maxBaseNameLen = 80

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a display title safe for use as a file base name:
// illegal characters stripped, whitespace collapsed to underscores, length
// capped. An empty result becomes "untitled".
func SanitizeFilename(name string) string {
	name = illegalChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(name) > maxBaseNameLen {
		name = name[:maxBaseNameLen]
	}
	if name == "" {
		return "untitled"
	}
	return name
}

// Store persists run artifacts. Names are deterministic per run (qualified by
// the run identifier when the title is empty), not globally collision-free.
type Store struct {
	framesDir      string
	transcriptsDir string
	logger         *slog.Logger
}

func NewStore(framesDir, transcriptsDir string, logger *slog.Logger) *Store {
	return &Store{framesDir: framesDir, transcriptsDir: transcriptsDir, logger: logger}
}

func baseName(title, runID string) string {
	if strings.TrimSpace(title) == "" {
		return "record_" + runID
	}
	return SanitizeFilename(title)
}

// SaveFrames writes one JPEG per frame and returns the saved filenames.
func (s *Store) SaveFrames(frames []media.Frame, title, runID string) ([]string, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(s.framesDir, 0755); err != nil {
		return nil, fmt.Errorf("create frames directory: %w", err)
	}
	base := baseName(title, runID)
	saved := make([]string, 0, len(frames))
	for i, frame := range frames {
		name := fmt.Sprintf("%s_frame_%d_%ss.jpg", base, i, strings.ReplaceAll(frame.Label, ":", "m"))
		if err := os.WriteFile(filepath.Join(s.framesDir, name), frame.Data, 0644); err != nil {
			return saved, fmt.Errorf("write frame %d: %w", i, err)
		}
		saved = append(saved, name)
	}
	s.logger.Debug("saved frames", "count", len(saved), "dir", s.framesDir)
	return saved, nil
}

// SaveTranscript writes the transcript with a small provenance header and
// returns the filename. Transcripts too short to be useful are skipped.
func (s *Store) SaveTranscript(text, title, runID string) (string, error) {
	if len(strings.TrimSpace(text)) < 10 {
		return "", nil
	}
	if err := os.MkdirAll(s.transcriptsDir, 0755); err != nil {
		return "", fmt.Errorf("create transcripts directory: %w", err)
	}
	name := baseName(title, runID) + "_transcript.txt"

	var b strings.Builder
	fmt.Fprintf(&b, "Transcript: %s\n", title)
	fmt.Fprintf(&b, "Saved: %s\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(text)

	if err := os.WriteFile(filepath.Join(s.transcriptsDir, name), []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return name, nil
}

// ReadTranscript loads a previously saved transcript, stripping the header
// added by SaveTranscript.
func (s *Store) ReadTranscript(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.transcriptsDir, name))
	if err != nil {
		return "", err
	}
	text := string(data)
	marker := strings.Repeat("=", 60) + "\n\n"
	if _, body, found := strings.Cut(text, marker); found {
		return body, nil
	}
	return text, nil
}
