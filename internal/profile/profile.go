// Package profile reads and writes the per-user resume pointer held on
// the user profile record. The pipeline never mutates the profile
// except to write a new file path after a resume re-upload.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/sdr-coach/internal/coach"
)

// ResumePointer references a user's uploaded resume document in blob
// storage.
type ResumePointer struct {
	Path      string
	MediaType string
	Filename  string
	UpdatedAt time.Time
}

// Store provides access to user_profiles.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetResumePointer returns the user's resume pointer. A missing profile
// or empty pointer yields a NotFoundError with an upload call-to-action.
func (s *Store) GetResumePointer(ctx context.Context, userID uuid.UUID) (*ResumePointer, error) {
	var p ResumePointer
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(resume_url, ''), COALESCE(resume_media_type, ''),
		        COALESCE(resume_filename, ''), updated_at
		 FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.Path, &p.MediaType, &p.Filename, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &coach.NotFoundError{Entity: "resume", Message: "no resume on file; upload one to run an analysis"}
		}
		return nil, &coach.PersistenceError{Op: "get resume pointer", Cause: err}
	}
	if p.Path == "" {
		return nil, &coach.NotFoundError{Entity: "resume", Message: "no resume on file; upload one to run an analysis"}
	}
	return &p, nil
}

// SetResumePointer records a new resume path after an upload.
func (s *Store) SetResumePointer(ctx context.Context, userID uuid.UUID, path, mediaType, filename string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, resume_url, resume_media_type, resume_filename, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET resume_url = $2, resume_media_type = $3, resume_filename = $4, updated_at = NOW()`,
		userID, path, mediaType, filename,
	)
	if err != nil {
		return &coach.PersistenceError{Op: "set resume pointer", Cause: err}
	}
	return nil
}
