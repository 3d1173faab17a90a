// Package fetchjob retrieves job postings referenced by URL for the
// job-fit analysis kind and reduces them to plain text.
package fetchjob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; SDRCoach/1.0)"

// maxPostingChars caps the text kept from a job posting page.
const maxPostingChars = 12000

// Posting holds a fetched job posting reduced to text.
type Posting struct {
	URL        string
	Text       string
	StatusCode int
}

// Error represents a failure fetching or parsing a posting URL.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("job posting fetch failed for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("job posting fetch failed for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures fetch behavior.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	UseBrowser bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
}

// Fetcher retrieves job postings over HTTP with an optional headless
// browser fallback for JavaScript-rendered boards.
type Fetcher struct {
	opts   Options
	client *http.Client
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// Fetch retrieves a posting URL and extracts its text. When UseBrowser
// is set and the plain fetch yields too little text, the page is
// re-rendered in a headless browser first.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Posting, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	html, status, err := f.fetchHTML(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	text, err := ExtractPostingText(html)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to parse HTML", Cause: err}
	}

	if f.opts.UseBrowser && shouldUseBrowser(text) {
		rendered, berr := renderWithBrowser(ctx, urlStr, f.opts.Timeout)
		if berr == nil {
			if rtext, rerr := ExtractPostingText(rendered); rerr == nil && len(rtext) > len(text) {
				text = rtext
			}
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, &Error{URL: urlStr, Message: "no text content extracted"}
	}
	return &Posting{URL: urlStr, Text: text, StatusCode: status}, nil
}

func (f *Fetcher) fetchHTML(ctx context.Context, urlStr string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", 0, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return string(body), resp.StatusCode, nil
}

// postingSelectors are tried in order to find the job description block
// before falling back to the whole body.
var postingSelectors = []string{
	".job-description",
	".job-content",
	"#job-description",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"main",
	"article",
	".content",
	"#content",
}

var collapseWS = regexp.MustCompile(`[ \t]+`)
var collapseNL = regexp.MustCompile(`\n{3,}`)

// ExtractPostingText parses posting HTML and returns the description
// text with page chrome stripped.
func ExtractPostingText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .ads, .sidebar, .cookie-banner, .popup").Remove()

	var content *goquery.Selection
	for _, selector := range postingSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	text := content.Text()
	text = collapseWS.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = collapseNL.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if len(text) > maxPostingChars {
		text = text[:maxPostingChars]
	}
	return text, nil
}
