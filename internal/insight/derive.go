package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/structure"
)

// recommendationKeywords signal that the analysis text contains
// actionable recommendations.
var recommendationKeywords = []string{"recommend", "suggestion", "improve", "next step"}

// scoreKeywords signal the presence of numeric scoring.
var scoreKeywords = []string{"score", "rating", "/100", "out of 100"}

// DeriveTitle builds the human-readable analysis title.
func DeriveTitle(kind coach.Kind, at time.Time) string {
	return fmt.Sprintf("%s - %s", kind.Label(), at.Format("2006-01-02"))
}

// DeriveMetadata inspects the raw analysis text for the stored metadata
// bundle.
func DeriveMetadata(rawText string) Metadata {
	lower := strings.ToLower(rawText)

	md := Metadata{ContentLength: len(rawText)}
	for _, kw := range recommendationKeywords {
		if strings.Contains(lower, kw) {
			md.HasRecommendations = true
			break
		}
	}
	for _, kw := range scoreKeywords {
		if strings.Contains(lower, kw) {
			md.HasScores = true
			break
		}
	}
	if score, ok := structure.ScoreNear(rawText, "profile", "overall", "readiness"); ok {
		md.DerivedScore = &score
	}
	return md
}

// DeriveTags builds the tag set for an analysis: the kind, a score tag
// when one was derived, and a recommendations marker.
func DeriveTags(kind coach.Kind, md Metadata) []string {
	tags := []string{string(kind)}
	if md.DerivedScore != nil {
		tags = append(tags, fmt.Sprintf("score-%d", *md.DerivedScore))
	}
	if md.HasRecommendations {
		tags = append(tags, "has-recommendations")
	}
	return tags
}
