// Package transcript holds the time-window filtering and text shaping applied
// to caption and speech-to-text segments before analysis.
package transcript

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chronicled/videoscope/internal/media"
)

// CharLimit caps the transcript text sent to the generation service.
const CharLimit = 50000

// FilterWindow keeps segments whose [start, start+duration) interval overlaps
// the requested [start, end) window. Nil bounds are open.
//
// NOTE: when the filter matches nothing, the full unfiltered set is returned.
// This mirrors long-standing behavior that callers may depend on, but it means
// a window outside the video silently yields the whole transcript. Tested
// explicitly in TestFilterWindowEmptyFallback.
func FilterWindow(segments []media.TranscriptSegment, start, end *float64) []media.TranscriptSegment {
	if start == nil && end == nil {
		return segments
	}
	filtered := make([]media.TranscriptSegment, 0, len(segments))
	for _, s := range segments {
		if start != nil && s.Start+s.Duration <= *start {
			continue
		}
		if end != nil && s.Start >= *end {
			continue
		}
		filtered = append(filtered, s)
	}
	if len(filtered) == 0 {
		return segments
	}
	return filtered
}

// Join flattens segments into a single space-separated text.
func Join(segments []media.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Cap truncates text to at most max bytes, backing up so a multibyte rune is
// never split at the boundary.
func Cap(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}

// Placeholder is the explicit marker used when both caption fetch and
// speech-to-text failed, so consumers can tell "acquisition failed" apart
// from "no speech".
func Placeholder(titleOrURL string) string {
	return fmt.Sprintf("[Transcript unavailable for: %s]", titleOrURL)
}
