// Package coach defines the analysis-kind catalog shared by the prompt
// registry, the pipeline, and the insight store.
package coach

// Kind identifies one analysis type the pipeline can produce.
type Kind string

// Analysis kinds supported by the pipeline.
const (
	KindMaster          Kind = "master"
	KindAdvanced        Kind = "advanced"
	KindSkill           Kind = "skill"
	KindCareerPath      Kind = "careerPath"
	KindInterviewPrep   Kind = "interviewPrep"
	KindPersonalization Kind = "personalization"
	KindLinkedIn        Kind = "linkedIn"
	KindJobFit          Kind = "jobFit"
	KindCoachingPlan    Kind = "coachingPlan"
	// KindCustom bypasses the prompt registry; the caller supplies the
	// entire system prompt verbatim.
	KindCustom Kind = "custom"
)

// labels maps kinds to the human-readable label used in analysis titles.
var labels = map[Kind]string{
	KindMaster:          "Comprehensive Analysis",
	KindAdvanced:        "Advanced Analysis",
	KindSkill:           "Skill Assessment",
	KindCareerPath:      "Career Path Analysis",
	KindInterviewPrep:   "Interview Preparation",
	KindPersonalization: "Personalized Insights",
	KindLinkedIn:        "LinkedIn Optimization",
	KindJobFit:          "Job Fit Score",
	KindCoachingPlan:    "Coaching Plan",
	KindCustom:          "Custom Analysis",
}

// All returns every registry-backed kind (custom excluded).
func All() []Kind {
	return []Kind{
		KindMaster, KindAdvanced, KindSkill, KindCareerPath,
		KindInterviewPrep, KindPersonalization, KindLinkedIn,
		KindJobFit, KindCoachingPlan,
	}
}

// Valid reports whether k is a known analysis kind.
func Valid(k Kind) bool {
	_, ok := labels[k]
	return ok
}

// Label returns the display label for a kind, falling back to the raw
// kind string for unknown values.
func (k Kind) Label() string {
	if label, ok := labels[k]; ok {
		return label
	}
	return string(k)
}

// IsCoaching reports whether the kind uses the coaching-plan model
// parameter profile (higher temperature, larger token cap).
func (k Kind) IsCoaching() bool {
	return k == KindCoachingPlan
}
