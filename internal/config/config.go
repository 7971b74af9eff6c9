// Package config builds the pipeline's configuration once at startup from
// the process environment (after godotenv has loaded any .env file).
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	// Generation backend (Ollama). Empty disables analysis calls.
	OllamaHost string
	EmbedModel string

	// Optional record store.
	DatabaseURL string

	// Artifact and temp layout.
	DownloadsDir   string
	FramesDir      string
	TranscriptsDir string
	TempDir        string

	// Acquisition bounds.
	MaxStreamHeight int
	FrameInterval   float64
	MaxFrames       int

	// External binaries.
	WhisperBin   string
	WhisperModel string
	YtDlpBin     string
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	downloads := envOr("DOWNLOADS_DIR", "downloads")
	return Config{
		OllamaHost:      envOr("OLLAMA_HOST", "http://localhost:11434"),
		EmbedModel:      envOr("EMBED_MODEL", "nomic-embed-text"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DownloadsDir:    downloads,
		FramesDir:       envOr("FRAMES_DIR", filepath.Join(downloads, "frames")),
		TranscriptsDir:  envOr("TRANSCRIPTS_DIR", filepath.Join(downloads, "transcripts")),
		TempDir:         envOr("TEMP_DIR", filepath.Join(downloads, "tmp")),
		MaxStreamHeight: envInt("MAX_STREAM_HEIGHT", 720),
		FrameInterval:   envFloat("FRAME_INTERVAL_SECONDS", 30),
		MaxFrames:       envInt("MAX_FRAMES", 20),
		WhisperBin:      envOr("WHISPER_BIN", "whisper"),
		WhisperModel:    envOr("WHISPER_MODEL", "base"),
		YtDlpBin:        envOr("YTDLP_BIN", "yt-dlp"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
