package analysis

import (
	"fmt"
	"strings"

	"github.com/chronicled/videoscope/internal/media"
	"github.com/chronicled/videoscope/internal/transcript"
)

// contentBlock is one unit of the multi-modal request: either text or an
// image. Blocks are ordered so each frame's timestamp breadcrumb sits
// directly before its image.
type contentBlock struct {
	Text  string
	Image []byte
}

func (b contentBlock) isImage() bool { return len(b.Image) > 0 }

// buildBlocks assembles the ordered content of one generation call:
// instruction text, capped transcript, then breadcrumb+image per frame.
func buildBlocks(req *media.AnalysisRequest, cfg modeConfig) []contentBlock {
	instruction := strings.NewReplacer(
		"{title}", req.Title,
		"{uploader}", req.Uploader,
	).Replace(cfg.Prompt)
	if req.SearchFocus != "" {
		instruction += fmt.Sprintf("\n\nPay particular attention to anything related to: %s", req.SearchFocus)
	}

	blocks := []contentBlock{{Text: instruction}}

	text := req.Transcript
	if strings.TrimSpace(text) == "" {
		text = "No transcript available."
	}
	rangeHeader := ""
	if req.TimeRangeNote != "" {
		rangeHeader = "\n" + req.TimeRangeNote
	}
	blocks = append(blocks, contentBlock{
		Text: fmt.Sprintf("\n## TRANSCRIPT:%s\n%s", rangeHeader, transcript.Cap(text, transcript.CharLimit)),
	})

	if len(req.Frames) > 0 {
		blocks = append(blocks, contentBlock{Text: "\n## VISUAL FRAMES (screenshots from the video):"})
		for _, frame := range req.Frames {
			blocks = append(blocks,
				contentBlock{Text: fmt.Sprintf("\n--- Frame at %s ---", frame.Label)},
				contentBlock{Image: frame.Data},
			)
		}
	}
	return blocks
}
