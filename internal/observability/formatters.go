// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/sdr-coach/internal/extract"
	"github.com/jonathan/sdr-coach/internal/structure"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintExtraction outputs how the resume text was recovered.
func (p *Printer) PrintExtraction(provenance extract.Provenance, degraded bool, chars int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Provenance: %s\n", provenance))
	sb.WriteString(fmt.Sprintf("Characters: %d\n", chars))
	if degraded {
		sb.WriteString("\n⚠ Extraction degraded: analysis ran on placeholder text")
	}
	p.printBox("RESUME EXTRACTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScores outputs the headline scores from a structured analysis.
func (p *Printer) PrintScores(schema *structure.Schema, source structure.Source) {
	if schema == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Profile:       %.0f\n", schema.ProfileScore))
	sb.WriteString(fmt.Sprintf("Optimization:  %.0f\n", schema.OptimizationScore))
	sb.WriteString(fmt.Sprintf("SDR readiness: %.0f\n", schema.SDRReadiness.Score))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Source: %s", source))

	p.printBox("SCORES", sb.String())
}

// PrintRecommendations outputs the top recommendations with priorities.
func (p *Printer) PrintRecommendations(schema *structure.Schema) {
	if schema == nil || len(schema.Recommendations) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total recommendations: %d\n\n", len(schema.Recommendations)))

	count := min(len(schema.Recommendations), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := schema.Recommendations[i]
		suggested := rec.Suggested
		if len(suggested) > 50 {
			suggested = suggested[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s [%s]\n", i+1, rec.Category, rec.Priority))
		sb.WriteString(fmt.Sprintf("    %s\n", suggested))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(schema.Recommendations) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(schema.Recommendations)-maxItemsToShow))
	}

	p.printBox("RECOMMENDATIONS", sb.String())
}

// PrintNextSteps outputs the action plan.
func (p *Printer) PrintNextSteps(schema *structure.Schema) {
	if schema == nil || len(schema.NextSteps) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(schema.NextSteps), maxItemsToShow)
	for i := 0; i < count; i++ {
		step := schema.NextSteps[i]
		title := step.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", title))
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", step.Priority, step.TimeToComplete))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(schema.NextSteps) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more steps", len(schema.NextSteps)-maxItemsToShow))
	}

	p.printBox("NEXT STEPS", sb.String())
}

// PrintReadiness outputs strengths and gaps from the readiness
// assessment.
func (p *Printer) PrintReadiness(schema *structure.Schema) {
	if schema == nil {
		return
	}
	readiness := schema.SDRReadiness
	if len(readiness.Strengths) == 0 && len(readiness.Gaps) == 0 {
		return
	}

	var sb strings.Builder
	if len(readiness.Strengths) > 0 {
		sb.WriteString("Strengths:\n")
		count := min(len(readiness.Strengths), 3)
		for i := 0; i < count; i++ {
			item := readiness.Strengths[i]
			if len(item) > 50 {
				item = item[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", item))
		}
		if len(readiness.Strengths) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(readiness.Strengths)-3))
		}
		sb.WriteString("\n")
	}

	if len(readiness.Gaps) > 0 {
		sb.WriteString("Gaps:\n")
		count := min(len(readiness.Gaps), 3)
		for i := 0; i < count; i++ {
			item := readiness.Gaps[i]
			if len(item) > 50 {
				item = item[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", item))
		}
		if len(readiness.Gaps) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(readiness.Gaps)-3))
		}
	}

	p.printBox("SDR READINESS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPlaceholders warns about fields the structurer could not recover
// from the model reply.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintPlaceholders(placeholders []string) {
	if len(placeholders) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL FIELDS RECOVERED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d fields hold placeholder values:\n\n", len(placeholders)))
	for i, field := range placeholders {
		sb.WriteString(fmt.Sprintf("⚠ %s", field))
		if i < len(placeholders)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("PLACEHOLDER FIELDS", sb.String())
}
