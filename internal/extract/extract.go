// Package extract turns uploaded resume blobs into best-effort plain
// text. Extraction degrades to diagnostic placeholder text rather than
// failing, so downstream stages always have renderable content.
package extract

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/normalize"
)

// Provenance records which extraction path produced the text.
type Provenance string

// Extraction provenance values.
const (
	ProvenanceDirect      Provenance = "direct"
	ProvenancePDFParser   Provenance = "pdf-parser"
	ProvenancePDFHeuristc Provenance = "heuristic-pdf"
	ProvenanceDocxParser  Provenance = "docx-parser"
	ProvenancePlaceholder Provenance = "unsupported-placeholder"
)

// Extracted is the result of one extraction call. Text is never empty:
// on total failure it holds a human-readable diagnostic message and
// Degraded is set so the caller can warn the user distinctly from a
// genuine successful extraction.
type Extracted struct {
	Text       string
	Provenance Provenance
	Degraded   bool
}

const (
	pdfDiagnostic = "This PDF could not be read as text. It may be scanned, " +
		"encrypted, or unusually formatted. Please paste your resume text " +
		"manually or upload a plain-text version."

	docDiagnostic = "Legacy Word documents (.doc) require additional tooling " +
		"to read. Please upload your resume as PDF, DOCX, or plain text."

	docxDiagnostic = "This Word document could not be read. It may be " +
		"corrupted or password protected. Please re-export it or upload a " +
		"plain-text version."
)

// Thresholds for accepting decoded PDF content, matching the observed
// behavior of the original heuristic.
const (
	minDirectPDFChars    = 50
	minCleanedPDFChars   = 30
	minHeuristicPDFChars = 100
	minUnknownTypeChars  = 50
)

// parenText matches parenthesized substrings in a raw PDF byte stream,
// a crude approximation of content-stream text-showing operators.
var parenText = regexp.MustCompile(`\(([^()]+)\)`)

var purelyNumeric = regexp.MustCompile(`^[\d\s.,-]+$`)

// Extract produces best-effort plain text from an opaque blob with a
// declared media type. It never fails for PDFs or unknown-but-decodable
// content; it only returns an error for declared-unsupported types that
// also fail the naive decode.
func Extract(data []byte, mediaType string) (Extracted, error) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch {
	case mt == "text/plain" || mt == "text/html" || strings.HasPrefix(mt, "text/"):
		// Trusted path: extraction does not mutate plain text.
		return Extracted{Text: string(data), Provenance: ProvenanceDirect}, nil

	case mt == "application/pdf":
		return extractPDF(data), nil

	case mt == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return extractDocx(data), nil

	case mt == "application/msword":
		// No extraction attempt for legacy Word documents.
		return Extracted{Text: docDiagnostic, Provenance: ProvenancePlaceholder, Degraded: true}, nil

	default:
		text := string(data)
		if utf8.ValidString(text) && len(text) > minUnknownTypeChars {
			return Extracted{Text: text, Provenance: ProvenanceDirect}, nil
		}
		return Extracted{}, &coach.UnsupportedMediaTypeError{MediaType: mediaType}
	}
}

// extractPDF tries a real PDF parser first, then the historical
// decode-and-scrape heuristics, and finally degrades to a diagnostic
// placeholder.
func extractPDF(data []byte) Extracted {
	if text, err := parsePDF(data); err == nil && len(strings.TrimSpace(text)) > minDirectPDFChars {
		return Extracted{Text: text, Provenance: ProvenancePDFParser}
	}

	// Direct decode works only for PDFs with uncompressed content
	// streams, which is atypical.
	raw := string(data)
	if utf8.ValidString(raw) && len(raw) > minDirectPDFChars {
		if cleaned := normalize.Clean(raw); len(cleaned) > minCleanedPDFChars {
			return Extracted{Text: cleaned, Provenance: ProvenanceDirect}
		}
	}

	if text := ScrapeParenthesized(data); len(text) > minHeuristicPDFChars {
		return Extracted{Text: text, Provenance: ProvenancePDFHeuristc}
	}

	return Extracted{Text: pdfDiagnostic, Provenance: ProvenancePlaceholder, Degraded: true}
}

// parsePDF extracts text with the PDF library, page by page. A panic in
// the library (malformed cross-reference tables) is converted to an
// error.
func parsePDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &coach.UnsupportedMediaTypeError{MediaType: "application/pdf"}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ScrapeParenthesized pulls parenthesized substrings out of a raw PDF
// byte stream and joins them with spaces. Matches shorter than 3
// characters or purely numeric matches are discarded. Exposed as a pure
// function so the heuristic can be golden-file tested.
func ScrapeParenthesized(data []byte) string {
	decoded := strings.ToValidUTF8(string(data), "")
	matches := parenText.FindAllStringSubmatch(decoded, -1)

	var parts []string
	for _, m := range matches {
		candidate := strings.TrimSpace(m[1])
		if len(candidate) < 3 {
			continue
		}
		if purelyNumeric.MatchString(candidate) {
			continue
		}
		parts = append(parts, candidate)
	}
	return strings.Join(parts, " ")
}

func extractDocx(data []byte) Extracted {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Extracted{Text: docxDiagnostic, Provenance: ProvenancePlaceholder, Degraded: true}
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	text := stripDocxTags(content)
	if strings.TrimSpace(text) == "" {
		return Extracted{Text: docxDiagnostic, Provenance: ProvenancePlaceholder, Degraded: true}
	}
	return Extracted{Text: text, Provenance: ProvenanceDocxParser}
}

var xmlTag = regexp.MustCompile(`<[^>]+>`)

// stripDocxTags flattens the word-processing XML returned by the docx
// library into plain text, inserting newlines at paragraph ends.
func stripDocxTags(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
