// Package store is the relational record-store collaborator: it creates a
// pending record per submitted URL and updates it with the analysis outcome.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/chronicled/videoscope/internal/media"
)

// Store wraps a pgx connection pool over the analyzed_content table.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the analyzed_content table and, when the pgvector
// extension is available, its summary-embedding column and index.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	_, err := s.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS analyzed_content (
            id BIGSERIAL PRIMARY KEY,
            source_url TEXT NOT NULL,
            content_type TEXT NOT NULL DEFAULT 'video',
            status TEXT NOT NULL DEFAULT 'pending',
            analysis_mode TEXT NOT NULL DEFAULT '',
            summary TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            visual_content TEXT NOT NULL DEFAULT '',
            topics JSONB NOT NULL DEFAULT '[]',
            people JSONB NOT NULL DEFAULT '[]',
            organizations JSONB NOT NULL DEFAULT '[]',
            source TEXT NOT NULL DEFAULT '',
            primary_source TEXT NOT NULL DEFAULT '',
            main_link TEXT NOT NULL DEFAULT '',
            transcript TEXT NOT NULL DEFAULT '',
            transcript_file TEXT NOT NULL DEFAULT '',
            video_metadata JSONB NOT NULL DEFAULT '{}',
            frames_data JSONB NOT NULL DEFAULT '[]',
            has_frames BOOLEAN NOT NULL DEFAULT FALSE,
            summary_embedding vector(768),
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_analyzed_content_status ON analyzed_content(status);
    `)
	if err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}
	return nil
}

// CreatePending inserts a new record for a submitted URL and returns its ID.
func (s *Store) CreatePending(ctx context.Context, sourceURL string, mode media.Mode) (int64, error) {
	var id int64
	now := time.Now()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO analyzed_content (source_url, analysis_mode, status, created_at, updated_at)
         VALUES ($1, $2, 'pending', $3, $3) RETURNING id`,
		sourceURL, string(mode), now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create pending record: %w", err)
	}
	return id, nil
}

// Outcome carries everything MarkAnalyzed writes back to a record.
type Outcome struct {
	Analysis       *media.AnalysisResult
	Metadata       media.VideoMetadata
	Transcript     string
	TranscriptFile string
	FrameFiles     []string
	HasFrames      bool
	Embedding      []float32
}

// MarkAnalyzed updates a pending record with the full analysis outcome. The
// embedding is optional; nil stores SQL NULL.
func (s *Store) MarkAnalyzed(ctx context.Context, id int64, out Outcome) error {
	topics, _ := json.Marshal(orEmpty(out.Analysis.Topics))
	people, _ := json.Marshal(orEmpty(out.Analysis.People))
	orgs, _ := json.Marshal(orEmpty(out.Analysis.Organizations))
	metadata, _ := json.Marshal(out.Metadata)
	frames, _ := json.Marshal(orEmpty(out.FrameFiles))

	var embedding any
	if len(out.Embedding) > 0 {
		embedding = pgvector.NewVector(out.Embedding)
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE analyzed_content SET
            status = 'analyzed',
            summary = $2, description = $3, visual_content = $4,
            topics = $5, people = $6, organizations = $7,
            source = $8, primary_source = $9, main_link = $10,
            transcript = $11, transcript_file = $12,
            video_metadata = $13, frames_data = $14, has_frames = $15,
            summary_embedding = $16, updated_at = $17
         WHERE id = $1`,
		id,
		out.Analysis.Summary, out.Analysis.Description, out.Analysis.VisualContent,
		topics, people, orgs,
		out.Analysis.Source, out.Analysis.PrimarySource, out.Analysis.MainLink,
		out.Transcript, out.TranscriptFile,
		metadata, frames, out.HasFrames,
		embedding, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update record %d: %w", id, err)
	}
	return nil
}

// MarkError flags a record whose analysis failed.
func (s *Store) MarkError(ctx context.Context, id int64, msg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE analyzed_content SET status = 'error', summary = $2, updated_at = $3 WHERE id = $1`,
		id, msg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark record %d as error: %w", id, err)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
