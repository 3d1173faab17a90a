// Package normalize cleans extracted resume text and fits it into the
// character budget sent to the model. The passes are pure string
// transforms so each can be tested against fixed sample documents.
package normalize

import (
	"regexp"
	"strings"
)

const (
	// DefaultCeiling is the character ceiling for normalized content,
	// derived from the model token budget.
	DefaultCeiling = 8000

	// minSubstance is the minimum chunk length kept by the sectioning
	// pass; shorter chunks are treated as noise.
	minSubstance = 40

	// TruncationMarker is appended when content was cut to fit the budget.
	TruncationMarker = "[Content truncated]"

	// truncateMargin is the smallest remaining budget worth filling with
	// a partial section before the marker.
	truncateMargin = 200
)

var (
	bulletGlyphs  = regexp.MustCompile(`[\x{2022}\x{25AA}\x{25CF}\x{25E6}\x{2023}\x{00B7}\x{2043}\x{2219}]`)
	nonASCII      = regexp.MustCompile("[^\x00-\x7F]")
	horizontalWS  = regexp.MustCompile(`[ \t\f\r]+`)
	multiBlank    = regexp.MustCompile(`\n{3,}`)
	pipeSeparator = regexp.MustCompile(`\s*\|\s*`)
)

// sectionHeadings is the fixed vocabulary of resume headings recognized
// by the sectioning pass, as singular stems; a trailing "s" is accepted
// so "PROJECT" and "PROJECTS" both match. Matching is case-insensitive
// and whole-line.
var sectionHeadings = []string{
	"PROFESSIONAL EXPERIENCE",
	"WORK EXPERIENCE",
	"EXPERIENCE",
	"EMPLOYMENT HISTORY",
	"EMPLOYMENT",
	"EDUCATION",
	"TECHNICAL SKILL",
	"SKILL",
	"PROFESSIONAL SUMMARY",
	"SUMMARY",
	"OBJECTIVE",
	"PROFILE",
	"ACHIEVEMENT",
	"ACCOMPLISHMENT",
	"PROJECT",
	"CERTIFICATION",
	"LANGUAGE",
	"INTEREST",
	"REFERENCE",
}

// headingLine matches a heading occupying a whole line, optionally
// followed by a colon. "Experience: 5 years." is not a heading; a line
// containing only "Experience" or "EXPERIENCE:" is. The capture keeps
// the document's own plural form.
var headingLine = regexp.MustCompile(`(?i)^\s*((?:` + strings.Join(sectionHeadings, "|") + `)S?)\s*:?\s*$`)

// Section is a contiguous chunk of cleaned text associated with a
// detected heading, or "preamble" for content before the first heading.
type Section struct {
	Heading string
	Text    string
}

// Clean normalizes whitespace and bullet artifacts in extracted text.
// This pass is lossy: non-ASCII characters are stripped, which corrupts
// names with diacritics or non-Latin scripts.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = bulletGlyphs.ReplaceAllString(text, "-")
	text = nonASCII.ReplaceAllString(text, "")
	text = pipeSeparator.ReplaceAllString(text, " | ")
	text = horizontalWS.ReplaceAllString(text, " ")

	// Trim trailing spaces left on each line by the collapse above.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	text = strings.Join(lines, "\n")

	text = multiBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// IsHeading reports whether a single line is a recognized section
// heading. Exposed so the heading-match boundary can be tested directly.
func IsHeading(line string) bool {
	return headingLine.MatchString(line)
}

// Sections slices cleaned text into ordered chunks at heading
// boundaries. Each section spans from its heading line up to (not
// including) the next heading line. Content before the first heading
// becomes a "preamble" section. Chunks shorter than the substance
// threshold are dropped as noise. If no heading is detected the entire
// text is returned as a single section.
func Sections(text string) []Section {
	lines := strings.Split(text, "\n")

	type boundary struct {
		line    int
		heading string
	}
	var boundaries []boundary
	for i, line := range lines {
		if m := headingLine.FindStringSubmatch(line); m != nil {
			boundaries = append(boundaries, boundary{line: i, heading: strings.ToUpper(m[1])})
		}
	}

	if len(boundaries) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []Section{{Heading: "content", Text: text}}
	}

	var sections []Section
	appendSection := func(heading string, from, to int) {
		chunk := strings.Join(lines[from:to], "\n")
		if len(strings.TrimSpace(chunk)) < minSubstance {
			return
		}
		sections = append(sections, Section{Heading: heading, Text: chunk})
	}

	if boundaries[0].line > 0 {
		appendSection("preamble", 0, boundaries[0].line)
	}
	for i, b := range boundaries {
		end := len(lines)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].line
		}
		appendSection(b.heading, b.line, end)
	}

	return sections
}

// Fit concatenates sections in original order until the ceiling is
// reached. Sections are never reordered by importance; selection is
// greedy-sequential. When a section would overflow the budget, it is
// truncated mid-section if at least truncateMargin characters of room
// remain after reserving the marker; with less room than that, output
// stops at the previous section. Either way the truncation marker is
// appended. The result never exceeds ceiling.
func Fit(sections []Section, ceiling int) string {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}

	var sb strings.Builder
	for i, sec := range sections {
		sep := ""
		if i > 0 {
			sep = "\n\n"
		}
		needed := len(sep) + len(sec.Text)

		if sb.Len()+needed <= ceiling {
			sb.WriteString(sep)
			sb.WriteString(sec.Text)
			continue
		}

		// Overflow. Fill what room remains, reserving space for the
		// marker, then stop.
		remaining := ceiling - sb.Len() - len(sep) - len(TruncationMarker) - 1
		if remaining >= truncateMargin {
			sb.WriteString(sep)
			sb.WriteString(sec.Text[:remaining])
			sb.WriteString("\n")
		} else if sb.Len()+len(TruncationMarker)+1 > ceiling {
			// No room even for the marker; cut the tail to make room.
			keep := ceiling - len(TruncationMarker) - 1
			if keep < 0 {
				// Ceiling smaller than the marker itself: emit a bare
				// prefix and skip the marker entirely.
				if sb.Len() > 0 {
					return sb.String()
				}
				return sec.Text[:min(len(sec.Text), ceiling)]
			}
			return sb.String()[:keep] + "\n" + TruncationMarker
		} else {
			sb.WriteString("\n")
		}
		sb.WriteString(TruncationMarker)
		return sb.String()
	}
	return sb.String()
}

// Normalize runs the cleanup, sectioning, and budget passes with the
// default ceiling.
func Normalize(text string) string {
	return NormalizeWithCeiling(text, DefaultCeiling)
}

// NormalizeWithCeiling runs the full pass chain with an explicit ceiling.
func NormalizeWithCeiling(text string, ceiling int) string {
	cleaned := Clean(text)
	return Fit(Sections(cleaned), ceiling)
}
