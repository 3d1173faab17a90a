package structure

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder values inserted when a field cannot be recovered from
// prose. These are hand-authored example data, not derived content;
// callers can tell via Result.Placeholders.
var placeholderSchema = Schema{
	ProfileScore:      72,
	OptimizationScore: 88,
	Recommendations: []Recommendation{
		{
			Category:  "headline",
			Current:   "Sales Professional",
			Suggested: "SDR | Pipeline Builder | Salesforce & Outreach",
			Priority:  "high",
			Impact:    "Recruiters searching for SDR keywords will find the profile",
		},
	},
	SDRReadiness: Readiness{
		Score:     65,
		Strengths: []string{"Communication", "Persistence"},
		Gaps:      []string{"CRM experience", "Cold outreach volume"},
	},
	NextSteps: []NextStep{
		{
			Title:          "Practice cold calls daily",
			Description:    "Run 10 practice cold calls per day against common objections",
			Action:         "Schedule a daily 30-minute call block",
			Impact:         "Builds the core SDR muscle fastest",
			TimeToComplete: "2 weeks",
			Priority:       "high",
		},
	},
	Metrics: Metrics{
		ProfileViews:       250,
		ConnectionRequests: 15,
		EngagementRate:     4.5,
		RecruiterViews:     8,
	},
}

// Field names reported in Result.Placeholders.
const (
	fieldProfileScore      = "profileScore"
	fieldOptimizationScore = "optimizationScore"
	fieldRecommendations   = "recommendations"
	fieldReadinessScore    = "sdrReadiness.score"
	fieldStrengths         = "sdrReadiness.strengths"
	fieldGaps              = "sdrReadiness.gaps"
	fieldNextSteps         = "nextSteps"
	fieldMetrics           = "metrics"
)

// Reconstruct rebuilds the schema from unstructured prose. Every field
// is populated: recovered where a pattern matches, placeholder example
// data otherwise. The returned slice names the placeholder fields.
func Reconstruct(text string) (Schema, []string) {
	schema := placeholderSchema
	var placeholders []string

	if score, ok := ScoreNear(text, "profile", "overall"); ok {
		schema.ProfileScore = float64(score)
	} else {
		placeholders = append(placeholders, fieldProfileScore)
	}

	if score, ok := ScoreNear(text, "optimization", "optimized"); ok {
		schema.OptimizationScore = float64(score)
	} else {
		placeholders = append(placeholders, fieldOptimizationScore)
	}

	if score, ok := ScoreNear(text, "readiness", "sdr", "fit"); ok {
		schema.SDRReadiness.Score = float64(score)
	} else {
		placeholders = append(placeholders, fieldReadinessScore)
	}

	if recs := extractRecommendations(text); len(recs) > 0 {
		schema.Recommendations = recs
	} else {
		placeholders = append(placeholders, fieldRecommendations)
	}

	if items := LabeledList(text, "strengths"); len(items) > 0 {
		schema.SDRReadiness.Strengths = items
	} else {
		placeholders = append(placeholders, fieldStrengths)
	}

	if items := LabeledList(text, "gaps", "weaknesses"); len(items) > 0 {
		schema.SDRReadiness.Gaps = items
	} else {
		placeholders = append(placeholders, fieldGaps)
	}

	if items := LabeledList(text, "next steps", "action items"); len(items) > 0 {
		steps := make([]NextStep, 0, len(items))
		for _, item := range items {
			steps = append(steps, NextStep{
				Title:          item,
				Description:    item,
				Action:         item,
				Impact:         "Moves the candidate closer to SDR readiness",
				TimeToComplete: "1 week",
				Priority:       "medium",
			})
		}
		schema.NextSteps = steps
	} else {
		placeholders = append(placeholders, fieldNextSteps)
	}

	// Engagement metrics never appear in prose replies in a recoverable
	// form; they are always example data on this path.
	placeholders = append(placeholders, fieldMetrics)

	return schema, placeholders
}

// ScoreNear finds a number appearing shortly after any of the given
// labels ("profile score: 85", "SDR readiness is 70/100"). Matches
// outside 0-100 are rejected and the search moves to the next label.
func ScoreNear(text string, labels ...string) (int, bool) {
	for _, label := range labels {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[^0-9\n]{0,40}(\d{1,3})`)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		score, err := strconv.Atoi(m[1])
		if err != nil || score < 0 || score > 100 {
			continue
		}
		return score, true
	}
	return 0, false
}

// LabeledLine captures "label: content" up to the end of the line for
// the first label that matches.
func LabeledLine(text string, labels ...string) (string, bool) {
	for _, label := range labels {
		re := regexp.MustCompile(`(?im)^\s*(?:[-*\d.]+\s*)?` + regexp.QuoteMeta(label) + `\s*:\s*(.+)$`)
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// LabeledList finds a label line and collects the list that follows:
// either comma-separated items on the label line itself, or subsequent
// bulleted/numbered lines.
func LabeledList(text string, labels ...string) []string {
	for _, label := range labels {
		// Inline form: "Strengths: a, b, c"
		if line, ok := LabeledLine(text, label); ok {
			if items := splitItems(line); len(items) > 0 {
				return items
			}
		}

		// Block form: a label heading followed by bullet lines.
		re := regexp.MustCompile(`(?im)^\s*(?:#+\s*)?` + regexp.QuoteMeta(label) + `\s*:?\s*$`)
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if items := bulletedBlock(text[loc[1]:]); len(items) > 0 {
			return items
		}
	}
	return nil
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*\x{2022}]|\d+[.)])\s*`)

// bulletedBlock collects consecutive bullet or numbered lines from the
// start of text, stopping at the first non-bullet, non-blank line.
func bulletedBlock(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(items) > 0 {
				break
			}
			continue
		}
		if !bulletPrefix.MatchString(line) {
			break
		}
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// splitItems splits a comma-delimited line into trimmed items. Single
// long sentences are not treated as lists.
func splitItems(line string) []string {
	if !strings.Contains(line, ",") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	var items []string
	for _, part := range strings.Split(line, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// rewriteLabels are the profile areas scanned for suggested rewrites.
var rewriteLabels = []string{"headline", "about", "summary", "experience"}

// extractRecommendations pulls "label: content-until-newline" rewrites
// out of prose and shapes them as recommendation records.
func extractRecommendations(text string) []Recommendation {
	var recs []Recommendation
	for _, label := range rewriteLabels {
		suggested, ok := LabeledLine(text, "suggested "+label, label)
		if !ok {
			continue
		}
		recs = append(recs, Recommendation{
			Category:  label,
			Current:   "",
			Suggested: suggested,
			Priority:  "medium",
			Impact:    "Improves the " + label + " for SDR-role visibility",
		})
	}
	return recs
}
