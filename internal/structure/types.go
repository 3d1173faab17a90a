package structure

// Schema is the fixed structured shape analysis results are coerced
// into, whether by strict parse or heuristic reconstruction. The JSON
// field names are the rendering layer's contract.
type Schema struct {
	ProfileScore      float64          `json:"profileScore"`
	OptimizationScore float64          `json:"optimizationScore"`
	Recommendations   []Recommendation `json:"recommendations"`
	SDRReadiness      Readiness        `json:"sdrReadiness"`
	NextSteps         []NextStep       `json:"nextSteps"`
	Metrics           Metrics          `json:"metrics"`
}

// Recommendation is one suggested rewrite.
type Recommendation struct {
	Category  string `json:"category"`
	Current   string `json:"current"`
	Suggested string `json:"suggested"`
	Priority  string `json:"priority"`
	Impact    string `json:"impact"`
}

// Readiness is the SDR-readiness assessment.
type Readiness struct {
	Score     float64  `json:"score"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
}

// NextStep is one recommended action.
type NextStep struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Action         string `json:"action"`
	Impact         string `json:"impact"`
	TimeToComplete string `json:"timeToComplete"`
	Priority       string `json:"priority"`
}

// Metrics holds projected profile engagement numbers.
type Metrics struct {
	ProfileViews       float64 `json:"profileViews"`
	ConnectionRequests float64 `json:"connectionRequests"`
	EngagementRate     float64 `json:"engagementRate"`
	RecruiterViews     float64 `json:"recruiterViews"`
}

// Source tags how a Result was produced, so callers can distinguish
// genuine structure from reconstructed placeholders.
type Source string

// Result sources.
const (
	// SourceStrict means the raw reply parsed and validated as the schema.
	SourceStrict Source = "strict"
	// SourceReconstructed means the schema was rebuilt heuristically
	// from prose; fields listed in Placeholders hold example data, not
	// derived content.
	SourceReconstructed Source = "reconstructed"
)

// Result is the structurer's output. It never represents a failure:
// absence of structure degrades to placeholders instead.
type Result struct {
	Schema       Schema
	Source       Source
	Placeholders []string
}

// UsedPlaceholders reports whether any field fell back to example data.
func (r Result) UsedPlaceholders() bool {
	return len(r.Placeholders) > 0
}
