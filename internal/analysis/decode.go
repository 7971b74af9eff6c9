package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chronicled/videoscope/internal/media"
	"github.com/chronicled/videoscope/internal/transcript"
)

// rawSummaryCap bounds the raw-text fallback summary when the model did not
// return parseable JSON.
const rawSummaryCap = 500

// stripFence removes a markdown code-fence wrapper from model output: the
// opening fence line (which may carry a language tag like ```json), the
// closing fence line, and a bare language tag left on the first remaining
// line. Unfenced input passes through untouched.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "json" {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// flexString accepts a string, number, bool, or a list of any of those; lists
// are joined with newlines. The generation service does not reliably honor
// the scalar/list distinction across modes.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, fmt.Sprint(v))
		}
		*f = flexString(strings.Join(parts, "\n"))
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*f = ""
		return nil
	}
	*f = flexString(fmt.Sprint(v))
	return nil
}

// flexList accepts an array of values (stringified) or a lone scalar.
type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			out = append(out, fmt.Sprint(v))
		}
		*f = out
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*f = nil
		return nil
	}
	*f = []string{string(s)}
	return nil
}

type rawResult struct {
	Summary       flexString  `json:"summary"`
	Description   flexString  `json:"description"`
	VisualContent flexString  `json:"visual_content"`
	Topics        flexList    `json:"topics"`
	People        flexList    `json:"people"`
	Organizations flexList    `json:"organizations"`
	Source        *flexString `json:"source"`
	PrimarySource flexString  `json:"primary_source"`
	MainLink      *flexString `json:"main_link"`
}

// stringOr keeps an explicit empty string from the model but falls back when
// the field is absent (or JSON null).
func stringOr(s *flexString, fallback string) string {
	if s == nil {
		return fallback
	}
	return string(*s)
}

// decodeResult turns raw model output into a normalized AnalysisResult. On a
// parse failure the result degrades to a truncated raw-text summary with
// empty structured fields.
func decodeResult(raw string, req *media.AnalysisRequest) *media.AnalysisResult {
	text := stripFence(raw)

	var parsed rawResult
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return &media.AnalysisResult{
			Summary:  transcript.Cap(text, rawSummaryCap),
			Source:   req.Uploader,
			MainLink: req.SourceURL,
		}
	}

	result := &media.AnalysisResult{
		Summary:       string(parsed.Summary),
		Description:   string(parsed.Description),
		VisualContent: string(parsed.VisualContent),
		Topics:        parsed.Topics,
		People:        parsed.People,
		Organizations: parsed.Organizations,
		Source:        stringOr(parsed.Source, req.Uploader),
		PrimarySource: string(parsed.PrimarySource),
		MainLink:      stringOr(parsed.MainLink, req.SourceURL),
	}
	return result
}
