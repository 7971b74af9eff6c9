package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/chronicled/videoscope/internal/analysis"
	"github.com/chronicled/videoscope/internal/artifacts"
	"github.com/chronicled/videoscope/internal/config"
	"github.com/chronicled/videoscope/internal/embeddings"
	"github.com/chronicled/videoscope/internal/media"
	"github.com/chronicled/videoscope/internal/pipeline"
	"github.com/chronicled/videoscope/internal/platform"
	"github.com/chronicled/videoscope/internal/sampler"
	"github.com/chronicled/videoscope/internal/store"
	"github.com/chronicled/videoscope/internal/stt"
)

func main() {
	// A .env file is optional; the environment wins either way.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "videoscope",
		Usage: "analyze online videos with a local vision model",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "run the full analysis pipeline for one video URL",
				ArgsUsage: "URL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Value: "long",
						Usage: "analysis depth: fast, quick, short or long",
					},
					&cli.BoolFlag{
						Name:  "skip-frames",
						Usage: "transcript-only analysis, no frame sampling",
					},
					&cli.Float64Flag{
						Name:  "start",
						Usage: "restrict analysis to content after `SECONDS`",
					},
					&cli.Float64Flag{
						Name:  "end",
						Usage: "restrict analysis to content before `SECONDS`",
					},
					&cli.StringFlag{
						Name:  "focus",
						Usage: "topic the analysis should pay particular attention to",
					},
					&cli.BoolFlag{
						Name:  "persist",
						Usage: "store the outcome in the configured database",
					},
				},
				Action: func(c *cli.Context) error {
					return runAnalyze(ctx, c)
				},
			},
			{
				Name:      "metadata",
				Usage:     "fetch metadata and captions only, no analysis",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					return runMetadata(ctx, c)
				},
			},
		},
		HideHelpCommand: true,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
}

func requireURL(c *cli.Context) (string, error) {
	url := c.Args().First()
	if url == "" {
		return "", cli.Exit("a video URL is required", 1)
	}
	if !platform.IsVideoURL(url) {
		return "", fmt.Errorf("not a recognized video URL: %s", url)
	}
	return url, nil
}

// buildPipeline wires the concrete collaborators into a ready pipeline.
func buildPipeline(cfg config.Config, logger *slog.Logger) (*pipeline.Pipeline, *analysis.Invoker) {
	resolver := platform.NewResolver(
		platform.NewYouTube(logger),
		platform.NewYtDlp(cfg.YtDlpBin, logger),
		cfg.MaxStreamHeight,
		logger,
	)
	whisper := stt.NewWhisper(cfg.WhisperBin, cfg.WhisperModel, logger)
	if !whisper.Available() {
		logger.Warn("whisper binary not found, speech-to-text disabled", "bin", cfg.WhisperBin)
	}
	inv := analysis.NewInvoker(cfg.OllamaHost, logger)

	p := pipeline.New(pipeline.Deps{
		Metadata:    resolver,
		Captions:    resolver,
		Media:       resolver,
		Transcriber: whisper,
		Sampler:     sampler.New(logger),
		Generation:  inv,
		Artifacts:   artifacts.NewStore(cfg.FramesDir, cfg.TranscriptsDir, logger),
	}, pipeline.Config{
		TempDir:       cfg.TempDir,
		FrameInterval: cfg.FrameInterval,
		MaxFrames:     cfg.MaxFrames,
	}, logger)

	return p, inv
}

func runAnalyze(ctx context.Context, c *cli.Context) error {
	logger := newLogger(c.Bool("verbose"))
	cfg := config.Load()

	url, err := requireURL(c)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Mode:        media.ParseMode(c.String("mode")),
		SkipFrames:  c.Bool("skip-frames"),
		SearchFocus: c.String("focus"),
	}
	if c.IsSet("start") {
		v := c.Float64("start")
		opts.StartTime = &v
	}
	if c.IsSet("end") {
		v := c.Float64("end")
		opts.EndTime = &v
	}

	p, inv := buildPipeline(cfg, logger)

	var db *store.Store
	var embedder *embeddings.Service
	var recordID int64
	if c.Bool("persist") {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("persist requested but DATABASE_URL is not set")
		}
		db, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("record store: %w", err)
		}
		defer db.Close()
		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("record store: %w", err)
		}
		embedder = embeddings.NewService(func(ctx context.Context, text string) ([]float32, error) {
			return inv.Embed(ctx, cfg.EmbedModel, text)
		}, 1)
		defer embedder.Close()
		recordID, err = db.CreatePending(ctx, url, opts.Mode)
		if err != nil {
			return fmt.Errorf("record store: %w", err)
		}
		logger.Info("created pending record", "id", recordID)
	}

	result, err := p.AnalyzeVideo(ctx, url, opts)
	if err != nil {
		if db != nil {
			if merr := db.MarkError(ctx, recordID, err.Error()); merr != nil {
				logger.Error("failed to mark record as errored", "id", recordID, "error", merr)
			}
		}
		return err
	}

	if db != nil {
		out := store.Outcome{
			Analysis:       result.Analysis,
			Metadata:       result.Metadata,
			Transcript:     result.Transcript,
			TranscriptFile: result.TranscriptFile,
			FrameFiles:     result.FrameFiles,
			HasFrames:      result.HasVisualAnalysis,
		}
		out.Embedding = embedSummary(ctx, embedder, result.Analysis.Summary, logger)
		if err := db.MarkAnalyzed(ctx, recordID, out); err != nil {
			return fmt.Errorf("record store: %w", err)
		}
		logger.Info("record stored", "id", recordID)
	}

	return printJSON(result)
}

// embedSummary computes the search vector for the summary text. Embedding is
// best-effort; the record is stored without one when the backend declines.
func embedSummary(ctx context.Context, svc *embeddings.Service, summary string, logger *slog.Logger) []float32 {
	if summary == "" {
		return nil
	}
	vec, err := svc.GetSync(ctx, summary)
	if err != nil {
		logger.Warn("summary embedding failed", "error", err)
		return nil
	}
	return vec
}

func runMetadata(ctx context.Context, c *cli.Context) error {
	logger := newLogger(c.Bool("verbose"))
	cfg := config.Load()

	url, err := requireURL(c)
	if err != nil {
		return err
	}

	p, _ := buildPipeline(cfg, logger)
	result, err := p.FetchMetadataOnly(ctx, url)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
