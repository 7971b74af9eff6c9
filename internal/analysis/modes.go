package analysis

import "github.com/chronicled/videoscope/internal/media"

// modeConfig is one row of the mode strategy table: which prompt to send,
// which model to send it to, and how much output the model may produce.
type modeConfig struct {
	Prompt    string
	Model     string
	MaxTokens int
}

// modeTable maps each analysis mode to its (prompt, model, budget) triple.
// Kept as data: adding a tier means adding a row, not a branch.
var modeTable = map[media.Mode]modeConfig{
	media.ModeFast:  {Prompt: promptFast, Model: "llava:7b", MaxTokens: 1500},
	media.ModeQuick: {Prompt: promptQuick, Model: "llava:13b", MaxTokens: 2500},
	media.ModeShort: {Prompt: promptShort, Model: "llama3.2-vision:11b", MaxTokens: 3000},
	media.ModeLong:  {Prompt: promptLong, Model: "llama3.2-vision:11b", MaxTokens: 4096},
}

func configFor(mode media.Mode) modeConfig {
	if cfg, ok := modeTable[mode]; ok {
		return cfg
	}
	return modeTable[media.ModeLong]
}
