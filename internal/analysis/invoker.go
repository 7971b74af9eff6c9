// Package analysis builds mode-dependent multi-modal requests (instruction
// text, transcript, timestamped frames) and defensively decodes the
// generation service's free-text response into a stable schema.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chronicled/videoscope/internal/media"
)

// Invoker drives the generation service. A nil backend (no base URL
// configured) yields an explicit "analysis unavailable" result instead of a
// call, so the pipeline still completes.
type Invoker struct {
	client *ollamaClient
	logger *slog.Logger
}

func NewInvoker(baseURL string, logger *slog.Logger) *Invoker {
	inv := &Invoker{logger: logger}
	if baseURL != "" {
		inv.client = newOllamaClient(baseURL)
	}
	return inv
}

// Embed exposes the backend's embedding endpoint for record-store search
// vectors.
func (inv *Invoker) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if inv.client == nil {
		return nil, fmt.Errorf("embeddings: no generation backend configured")
	}
	return inv.client.Embed(ctx, model, text)
}

// Analyze sends transcript + frames in one request and normalizes the
// response. An error from the generation call itself is the pipeline's only
// fatal failure; an empty request (no transcript, no frames) is valid input.
func (inv *Invoker) Analyze(ctx context.Context, req *media.AnalysisRequest) (*media.AnalysisResult, error) {
	cfg := configFor(req.Mode)
	if inv.client == nil {
		inv.logger.Warn("no generation backend configured, returning placeholder analysis")
		return &media.AnalysisResult{
			Summary:  "[Analysis unavailable: set OLLAMA_HOST to a running Ollama instance]",
			Source:   req.Uploader,
			MainLink: req.SourceURL,
		}, nil
	}

	inv.logger.Info("invoking generation service",
		"mode", req.Mode, "model", cfg.Model, "budget", cfg.MaxTokens, "frames", len(req.Frames))

	blocks := buildBlocks(req, cfg)
	raw, err := inv.client.chat(ctx, cfg.Model, blocks, cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generation service: %w", err)
	}
	return decodeResult(raw, req), nil
}
