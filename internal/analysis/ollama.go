package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ollamaClient speaks the Ollama REST API directly. The chat endpoint takes
// the flattened text of the content blocks plus the frame images base64
// encoded, in block order.
type ollamaClient struct {
	baseURL string
	http    *http.Client
}

func newOllamaClient(baseURL string) *ollamaClient {
	return &ollamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Vision models routinely take minutes on large multi-frame requests.
		http: &http.Client{Timeout: 10 * time.Minute},
	}
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

// chat sends one multi-modal request and returns the model's raw reply text.
func (c *ollamaClient) chat(ctx context.Context, model string, blocks []contentBlock, maxTokens int) (string, error) {
	var content strings.Builder
	var images []string
	for _, b := range blocks {
		if b.isImage() {
			images = append(images, base64.StdEncoding.EncodeToString(b.Image))
			continue
		}
		content.WriteString(b.Text)
		content.WriteString("\n")
	}

	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: content.String(),
			Images:  images,
		}},
		Stream:  false,
		Options: map[string]any{"num_predict": maxTokens},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ollama: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: status %d: %.200s", resp.StatusCode, string(body))
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama: %s", decoded.Error)
	}
	if decoded.Message.Content == "" {
		return "", fmt.Errorf("ollama: no response message received from model")
	}
	return decoded.Message.Content, nil
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error"`
}

// Embed generates a vector embedding for text via /api/embeddings.
func (c *ollamaClient) Embed(ctx context.Context, model, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama embed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: status %d: %.200s", resp.StatusCode, string(body))
	}
	var decoded embedResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("ollama embed: decode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("ollama embed: %s", decoded.Error)
	}
	return decoded.Embedding, nil
}
