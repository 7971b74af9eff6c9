package artifacts

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/chronicled/videoscope/internal/media"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSanitizeFilename(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("My_Video_Title", SanitizeFilename("My Video Title"))
	assert.Equal("ab", SanitizeFilename(`a<>:"/\|?*b`))
	assert.Equal("a_b", SanitizeFilename("  a \t\n b  "))
	assert.Equal("untitled", SanitizeFilename(`///`))
	assert.Equal("untitled", SanitizeFilename(""))

	long := strings.Repeat("x", 200)
	assert.Len(SanitizeFilename(long), 80)
}

func TestSaveTranscriptRoundTrip(t *testing.T) {
	assert := assert_.New(t)

	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "frames"), filepath.Join(dir, "transcripts"), testLogger())

	text := "This is a transcript long enough to be saved."
	name, err := store.SaveTranscript(text, "Some Talk", "run-1")
	assert.NoError(err)
	assert.Equal("Some_Talk_transcript.txt", name)

	got, err := store.ReadTranscript(name)
	assert.NoError(err)
	assert.Equal(text, got)
}

func TestSaveTranscriptSkipsShortText(t *testing.T) {
	assert := assert_.New(t)

	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "frames"), filepath.Join(dir, "transcripts"), testLogger())

	name, err := store.SaveTranscript("  hi  ", "Some Talk", "run-1")
	assert.NoError(err)
	assert.Equal("", name)
}

func TestSaveFrames(t *testing.T) {
	assert := assert_.New(t)

	dir := t.TempDir()
	framesDir := filepath.Join(dir, "frames")
	store := NewStore(framesDir, filepath.Join(dir, "transcripts"), testLogger())

	frames := []media.Frame{
		{Data: []byte{0xFF, 0xD8}, Timestamp: 0, Label: "0:00"},
		{Data: []byte{0xFF, 0xD9}, Timestamp: 90, Label: "1:30"},
	}
	saved, err := store.SaveFrames(frames, "Demo", "run-2")
	assert.NoError(err)
	assert.Equal([]string{"Demo_frame_0_0m00s.jpg", "Demo_frame_1_1m30s.jpg"}, saved)

	data, err := os.ReadFile(filepath.Join(framesDir, saved[1]))
	assert.NoError(err)
	assert.Equal(frames[1].Data, data)
}

func TestSaveFramesEmptyTitleUsesRunID(t *testing.T) {
	assert := assert_.New(t)

	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "frames"), filepath.Join(dir, "transcripts"), testLogger())

	saved, err := store.SaveFrames([]media.Frame{{Data: []byte{1}, Label: "0:05"}}, "", "abc123")
	assert.NoError(err)
	assert.Equal([]string{"record_abc123_frame_0_0m05s.jpg"}, saved)
}
