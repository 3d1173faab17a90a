package insight

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/sdr-coach/internal/coach"
)

// Analysis is a persisted analysis result. It is immutable after
// creation except for the favorite flag and tags.
type Analysis struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Kind          coach.Kind `json:"analysis_type"`
	Title         string     `json:"analysis_title"`
	Content       string     `json:"analysis_content"`
	ResumeVersion string     `json:"resume_version,omitempty"`
	Metadata      Metadata   `json:"metadata"`
	Tags          []string   `json:"tags"`
	IsFavorite    bool       `json:"is_favorite"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Metadata is the derived metadata bundle stored alongside an analysis.
type Metadata struct {
	ContentLength      int  `json:"content_length"`
	HasRecommendations bool `json:"has_recommendations"`
	HasScores          bool `json:"has_scores"`
	DerivedScore       *int `json:"derived_score,omitempty"`
}

// Update holds the mutable fields of an analysis. Nil fields are left
// unchanged.
type Update struct {
	IsFavorite *bool
	Tags       *[]string
}
