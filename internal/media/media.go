// Package media holds the data types shared across the video analysis
// pipeline: metadata, transcript segments, sampled frames, and the
// request/result shapes of the multi-modal analysis call.
package media

import "fmt"

// Mode selects how much detail (and model cost) an analysis run spends.
type Mode string

const (
	ModeFast  Mode = "fast"
	ModeQuick Mode = "quick"
	ModeShort Mode = "short"
	ModeLong  Mode = "long"
)

// ParseMode maps a user-supplied string to a Mode, defaulting to ModeLong.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeFast, ModeQuick, ModeShort, ModeLong:
		return Mode(s)
	default:
		return ModeLong
	}
}

// VideoMetadata is fetched once per run, without downloading the media body.
// A failed fetch yields the zero value rather than an error.
type VideoMetadata struct {
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	UploadDate  string  `json:"upload_date"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
	ViewCount   int64   `json:"view_count"`
	Channel     string  `json:"channel"`
}

// TranscriptSegment is one caption or speech-to-text unit. Sequences are
// ordered ascending by Start.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Frame is a single still image sampled from the video.
type Frame struct {
	Data      []byte  `json:"-"`
	Timestamp float64 `json:"timestamp"`
	Label     string  `json:"label"`
}

// SampleOptions bounds a frame sampling pass. Start/End restrict sampling to
// a [start, end) window when non-nil.
type SampleOptions struct {
	Interval  float64
	MaxFrames int
	Start     *float64
	End       *float64
}

// AnalysisRequest carries everything the generation service needs for one
// multi-modal call.
type AnalysisRequest struct {
	Transcript    string
	Frames        []Frame
	Title         string
	Uploader      string
	SourceURL     string
	Mode          Mode
	TimeRangeNote string
	SearchFocus   string
}

// AnalysisResult is the normalized output of the generation service. Scalar
// fields are always plain strings, even when the model answered with a list.
type AnalysisResult struct {
	Summary       string   `json:"summary"`
	Description   string   `json:"description"`
	VisualContent string   `json:"visual_content"`
	Topics        []string `json:"topics"`
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Source        string   `json:"source"`
	PrimarySource string   `json:"primary_source"`
	MainLink      string   `json:"main_link"`
}

// FormatTimestamp renders seconds as m:ss, or h:mm:ss past the hour mark.
func FormatTimestamp(seconds float64) string {
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s%60)
	}
	return fmt.Sprintf("%d:%02d", m, s%60)
}
