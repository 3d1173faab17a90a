package fetchjob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingHTML = `<html>
<head><title>SDR Opening</title><style>body { color: red }</style></head>
<body>
<nav>Home | Jobs | About</nav>
<div class="job-description">
  <h1>Sales Development Representative</h1>
  <p>We need an SDR with Salesforce experience and high outbound volume.</p>
  <p>You will book 20+ meetings per month.</p>
</div>
<footer>Copyright Example Corp</footer>
</body>
</html>`

func TestExtractPostingText(t *testing.T) {
	text, err := ExtractPostingText(postingHTML)
	require.NoError(t, err)

	assert.Contains(t, text, "Sales Development Representative")
	assert.Contains(t, text, "Salesforce experience")
	assert.NotContains(t, text, "Home | Jobs", "nav chrome must be stripped")
	assert.NotContains(t, text, "Copyright", "footer must be stripped")
	assert.NotContains(t, text, "color: red", "styles must be stripped")
}

func TestExtractPostingText_FallsBackToBody(t *testing.T) {
	html := `<html><body><p>Plain page with a posting but no known container.</p></body></html>`
	text, err := ExtractPostingText(html)
	require.NoError(t, err)
	assert.Contains(t, text, "no known container")
}

func TestExtractPostingText_CapsLength(t *testing.T) {
	html := "<html><body><main>" + strings.Repeat("word ", 5000) + "</main></body></html>"
	text, err := ExtractPostingText(html)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(text), 12000)
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "SDRCoach")
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer server.Close()

	f := New(DefaultOptions())
	posting, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, server.URL, posting.URL)
	assert.Equal(t, http.StatusOK, posting.StatusCode)
	assert.Contains(t, posting.Text, "book 20+ meetings")
}

func TestFetch_InvalidURL(t *testing.T) {
	f := New(DefaultOptions())

	tests := []string{"", "not-a-url", "://missing-scheme"}
	for _, u := range tests {
		_, err := f.Fetch(context.Background(), u)
		require.Error(t, err, "url %q", u)

		var fetchErr *Error
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, "invalid URL", fetchErr.Message)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := New(DefaultOptions())
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Message, "404")
}

func TestFetch_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body></body></html>"))
	}))
	defer server.Close()

	f := New(DefaultOptions())
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, shouldUseBrowser("short stub"))
	assert.False(t, shouldUseBrowser(strings.Repeat("full static posting text ", 30)))
}
