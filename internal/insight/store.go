// Package insight persists analysis results to PostgreSQL. The adapter
// derives title, metadata, and tags at save time and performs no
// retries; store failures propagate to the caller untouched.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/sdr-coach/internal/coach"
)

// Store provides CRUD access to analysis results.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect establishes a connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

const analysisColumns = `id, user_id, analysis_type, analysis_title, analysis_content,
	COALESCE(resume_version, ''), metadata, tags, is_favorite, created_at, updated_at`

// Save creates a new analysis record with derived title, metadata, and
// tags, and returns the stored row.
func (s *Store) Save(ctx context.Context, userID uuid.UUID, kind coach.Kind, rawText, resumeVersion string) (*Analysis, error) {
	now := time.Now().UTC()
	md := DeriveMetadata(rawText)
	tags := DeriveTags(kind, md)

	mdJSON, err := json.Marshal(md)
	if err != nil {
		return nil, &coach.PersistenceError{Op: "save", Cause: err}
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO ai_analysis_results
		 (id, user_id, analysis_type, analysis_title, analysis_content,
		  resume_version, metadata, tags, is_favorite, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9, $9)
		 RETURNING `+analysisColumns,
		uuid.New(), userID, string(kind), DeriveTitle(kind, now), rawText,
		resumeVersion, mdJSON, tags, now,
	)

	analysis, err := scanAnalysis(row)
	if err != nil {
		return nil, &coach.PersistenceError{Op: "save", Cause: err}
	}
	return analysis, nil
}

// List returns a user's analyses ordered newest-first.
func (s *Store) List(ctx context.Context, userID uuid.UUID, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+analysisColumns+`
		 FROM ai_analysis_results
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, &coach.PersistenceError{Op: "list", Cause: err}
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, &coach.PersistenceError{Op: "list", Cause: err}
		}
		analyses = append(analyses, *analysis)
	}
	return analyses, rows.Err()
}

// Get retrieves one analysis by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM ai_analysis_results WHERE id = $1`, id)

	analysis, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &coach.NotFoundError{Entity: "analysis", Message: id.String()}
		}
		return nil, &coach.PersistenceError{Op: "get", Cause: err}
	}
	return analysis, nil
}

// ApplyUpdate updates the mutable fields of an analysis. Concurrent
// updates are last-write-wins; no version check is performed.
func (s *Store) ApplyUpdate(ctx context.Context, id uuid.UUID, update Update) (*Analysis, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	favorite := current.IsFavorite
	if update.IsFavorite != nil {
		favorite = *update.IsFavorite
	}
	tags := current.Tags
	if update.Tags != nil {
		tags = *update.Tags
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE ai_analysis_results
		 SET is_favorite = $2, tags = $3, updated_at = $4
		 WHERE id = $1
		 RETURNING `+analysisColumns,
		id, favorite, tags, time.Now().UTC(),
	)

	analysis, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &coach.NotFoundError{Entity: "analysis", Message: id.String()}
		}
		return nil, &coach.PersistenceError{Op: "update", Cause: err}
	}
	return analysis, nil
}

// Delete removes an analysis permanently. There is no soft-delete state.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM ai_analysis_results WHERE id = $1`, id)
	if err != nil {
		return &coach.PersistenceError{Op: "delete", Cause: err}
	}
	if result.RowsAffected() == 0 {
		return &coach.NotFoundError{Entity: "analysis", Message: id.String()}
	}
	return nil
}

// scanAnalysis reads one analysis row.
func scanAnalysis(row pgx.Row) (*Analysis, error) {
	var a Analysis
	var kind string
	var mdJSON []byte

	err := row.Scan(&a.ID, &a.UserID, &kind, &a.Title, &a.Content,
		&a.ResumeVersion, &mdJSON, &a.Tags, &a.IsFavorite, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Kind = coach.Kind(kind)
	if len(mdJSON) > 0 {
		if err := json.Unmarshal(mdJSON, &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
	}
	return &a, nil
}
