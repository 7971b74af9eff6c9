package analysis

import (
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/chronicled/videoscope/internal/media"
)

func TestModeTable(t *testing.T) {
	assert := assert_.New(t)

	fast := configFor(media.ModeFast)
	assert.Equal("llava:7b", fast.Model)
	assert.Equal(1500, fast.MaxTokens)
	assert.Equal(promptFast, fast.Prompt)

	quick := configFor(media.ModeQuick)
	assert.Equal("llava:13b", quick.Model)
	assert.Equal(2500, quick.MaxTokens)
	assert.Equal(promptQuick, quick.Prompt)

	short := configFor(media.ModeShort)
	assert.Equal("llama3.2-vision:11b", short.Model)
	assert.Equal(3000, short.MaxTokens)
	assert.Equal(promptShort, short.Prompt)

	long := configFor(media.ModeLong)
	assert.Equal("llama3.2-vision:11b", long.Model)
	assert.Equal(4096, long.MaxTokens)
	assert.Equal(promptLong, long.Prompt)

	// Unknown modes get the long tier.
	assert.Equal(long, configFor(media.Mode("bogus")))
}

func TestBuildBlocksOrdering(t *testing.T) {
	assert := assert_.New(t)

	req := &media.AnalysisRequest{
		Transcript: "hello world",
		Title:      "My Title",
		Uploader:   "My Channel",
		Frames: []media.Frame{
			{Data: []byte{0xFF}, Timestamp: 30, Label: "0:30"},
			{Data: []byte{0xFE}, Timestamp: 60, Label: "1:00"},
		},
	}
	blocks := buildBlocks(req, configFor(media.ModeLong))

	// instruction, transcript, frames header, then breadcrumb+image pairs
	assert.Len(blocks, 3+2*len(req.Frames))
	assert.Contains(blocks[0].Text, "My Title")
	assert.Contains(blocks[0].Text, "My Channel")
	assert.Contains(blocks[1].Text, "## TRANSCRIPT:")
	assert.Contains(blocks[1].Text, "hello world")
	assert.Contains(blocks[2].Text, "## VISUAL FRAMES")
	assert.Contains(blocks[3].Text, "Frame at 0:30")
	assert.True(blocks[4].isImage())
	assert.Contains(blocks[5].Text, "Frame at 1:00")
	assert.True(blocks[6].isImage())
}

func TestBuildBlocksEmptyTranscriptAndFocus(t *testing.T) {
	assert := assert_.New(t)

	req := &media.AnalysisRequest{
		Transcript:  "   ",
		SearchFocus: "rust compilers",
	}
	blocks := buildBlocks(req, configFor(media.ModeFast))

	assert.Contains(blocks[0].Text, "Pay particular attention to anything related to: rust compilers")
	assert.Contains(blocks[1].Text, "No transcript available.")
	// No frames: no visual section at all.
	assert.Len(blocks, 2)
}

func TestBuildBlocksTimeRangeNote(t *testing.T) {
	assert := assert_.New(t)

	req := &media.AnalysisRequest{
		Transcript:    "words",
		TimeRangeNote: "[Segment analyzed: 0:30 - 1:30]",
	}
	blocks := buildBlocks(req, configFor(media.ModeLong))
	assert.Contains(blocks[1].Text, "[Segment analyzed: 0:30 - 1:30]")
}

func TestBuildBlocksCapsTranscript(t *testing.T) {
	assert := assert_.New(t)

	req := &media.AnalysisRequest{Transcript: strings.Repeat("a", 60000)}
	blocks := buildBlocks(req, configFor(media.ModeLong))
	// header + capped text, nothing near the raw 60k
	assert.Less(len(blocks[1].Text), 51000)
}
