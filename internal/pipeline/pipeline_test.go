package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/extract"
	"github.com/jonathan/sdr-coach/internal/fetchjob"
	"github.com/jonathan/sdr-coach/internal/insight"
	"github.com/jonathan/sdr-coach/internal/profile"
	"github.com/jonathan/sdr-coach/internal/prompt"
	"github.com/jonathan/sdr-coach/internal/structure"
)

type fakeBlob struct {
	data map[string][]byte
	err  error
}

func (f *fakeBlob) Download(_ context.Context, path string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.data[path]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

type fakeProfiles struct {
	pointer *profile.ResumePointer
	err     error
}

func (f *fakeProfiles) GetResumePointer(context.Context, uuid.UUID) (*profile.ResumePointer, error) {
	return f.pointer, f.err
}

type fakeInsights struct {
	saved   []string
	lastKey string
	err     error
}

func (f *fakeInsights) Save(_ context.Context, userID uuid.UUID, kind coach.Kind, rawText, resumeVersion string) (*insight.Analysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, rawText)
	f.lastKey = resumeVersion
	return &insight.Analysis{
		ID:      uuid.New(),
		UserID:  userID,
		Kind:    kind,
		Content: rawText,
	}, nil
}

type fakeLLM struct {
	reply    string
	err      error
	lastReq  prompt.Request
	numCalls int
}

func (f *fakeLLM) Complete(_ context.Context, req prompt.Request) (string, error) {
	f.numCalls++
	f.lastReq = req
	return f.reply, f.err
}

func (f *fakeLLM) Close() error { return nil }

type fakeJobs struct {
	posting string
	err     error
	fetched string
}

func (f *fakeJobs) Fetch(_ context.Context, url string) (*fetchjob.Posting, error) {
	f.fetched = url
	if f.err != nil {
		return nil, f.err
	}
	return &fetchjob.Posting{URL: url, Text: f.posting}, nil
}

const sampleResume = `SUMMARY
Driven seller with two years of outbound prospecting experience at Acme.

EXPERIENCE
Acme Corp - SDR - booked 30 qualified meetings per month against a target of 22.`

func testPipeline(t *testing.T, overrides func(*Config)) (*Pipeline, *fakeLLM, *fakeInsights) {
	t.Helper()

	llmFake := &fakeLLM{reply: "Profile score: 80. I recommend a stronger headline."}
	insights := &fakeInsights{}
	cfg := Config{
		LLM: llmFake,
		Blob: &fakeBlob{data: map[string][]byte{
			"u1/resume.txt": []byte(sampleResume),
		}},
		Profiles: &fakeProfiles{pointer: &profile.ResumePointer{
			Path:      "u1/resume.txt",
			MediaType: "text/plain",
			Filename:  "resume.txt",
			UpdatedAt: time.Now(),
		}},
		Insights: insights,
	}
	if overrides != nil {
		overrides(&cfg)
	}

	p, err := New(cfg)
	require.NoError(t, err)
	return p, llmFake, insights
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{LLM: &fakeLLM{}})
	require.Error(t, err)
}

func TestRun_HappyPath(t *testing.T) {
	p, llmFake, insights := testPipeline(t, nil)

	outcome, err := p.Run(context.Background(), RunRequest{
		UserID: uuid.New(),
		Kind:   coach.KindMaster,
	})
	require.NoError(t, err)

	assert.Equal(t, extract.ProvenanceDirect, outcome.Provenance)
	assert.False(t, outcome.Degraded)
	assert.Equal(t, llmFake.reply, outcome.RawText)
	assert.Equal(t, structure.SourceReconstructed, outcome.Structured.Source)
	assert.Equal(t, 80.0, outcome.Structured.Schema.ProfileScore)

	require.NotNil(t, outcome.Analysis)
	assert.Nil(t, outcome.SaveErr)
	require.Len(t, insights.saved, 1)
	assert.Equal(t, "u1/resume.txt", insights.lastKey, "resume path is recorded as the version")

	// The user turn carries the normalized resume content.
	assert.Contains(t, llmFake.lastReq.UserContent, "booked 30 qualified meetings")
	assert.Equal(t, coach.KindMaster, llmFake.lastReq.Kind)
}

func TestRun_UnknownKind(t *testing.T) {
	p, llmFake, _ := testPipeline(t, nil)

	_, err := p.Run(context.Background(), RunRequest{UserID: uuid.New(), Kind: coach.Kind("nope")})
	require.Error(t, err)
	assert.Zero(t, llmFake.numCalls)
}

func TestRun_NoResumeOnFile(t *testing.T) {
	nf := &coach.NotFoundError{Entity: "resume", Message: "no resume on file; upload one to run an analysis"}
	p, llmFake, _ := testPipeline(t, func(cfg *Config) {
		cfg.Profiles = &fakeProfiles{err: nf}
	})

	_, err := p.Run(context.Background(), RunRequest{UserID: uuid.New(), Kind: coach.KindMaster})
	require.Error(t, err)

	var nfErr *coach.NotFoundError
	require.True(t, errors.As(err, &nfErr))
	assert.Contains(t, nfErr.Message, "upload one")
	assert.Zero(t, llmFake.numCalls, "no completion call without a resume")
}

func TestRun_UpstreamErrorPropagates(t *testing.T) {
	upstream := &coach.UpstreamError{StatusCode: 502, Message: "model overloaded"}
	p, _, insights := testPipeline(t, func(cfg *Config) {
		cfg.LLM = &fakeLLM{err: upstream}
	})

	_, err := p.Run(context.Background(), RunRequest{UserID: uuid.New(), Kind: coach.KindMaster})
	require.Error(t, err)

	var upErr *coach.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "model overloaded", upErr.Message)
	assert.Empty(t, insights.saved, "failed analyses are not persisted")
}

func TestRun_SaveFailureStillReturnsOutcome(t *testing.T) {
	p, _, _ := testPipeline(t, func(cfg *Config) {
		cfg.Insights = &fakeInsights{err: &coach.PersistenceError{Op: "save", Cause: errors.New("connection reset")}}
	})

	outcome, err := p.Run(context.Background(), RunRequest{UserID: uuid.New(), Kind: coach.KindMaster})
	require.NoError(t, err, "a failed save must not discard the analysis")

	assert.Nil(t, outcome.Analysis)
	require.Error(t, outcome.SaveErr)
	assert.NotEmpty(t, outcome.RawText)
}

func TestRun_DegradedExtractionFlows(t *testing.T) {
	p, llmFake, _ := testPipeline(t, func(cfg *Config) {
		cfg.Blob = &fakeBlob{data: map[string][]byte{
			"u1/resume.txt": []byte("%PDF-1.4 unreadable"),
		}}
		cfg.Profiles = &fakeProfiles{pointer: &profile.ResumePointer{
			Path:      "u1/resume.txt",
			MediaType: "application/pdf",
		}}
	})

	outcome, err := p.Run(context.Background(), RunRequest{UserID: uuid.New(), Kind: coach.KindMaster})
	require.NoError(t, err)

	assert.True(t, outcome.Degraded)
	assert.Equal(t, extract.ProvenancePlaceholder, outcome.Provenance)
	// The diagnostic placeholder is what went to the model.
	assert.Contains(t, llmFake.lastReq.UserContent, "could not be read")
}

func TestRun_CustomKind(t *testing.T) {
	p, llmFake, _ := testPipeline(t, nil)

	_, err := p.Run(context.Background(), RunRequest{
		UserID:             uuid.New(),
		Kind:               coach.KindCustom,
		CustomSystemPrompt: "You are a brutally honest coach.",
	})
	require.NoError(t, err)
	assert.Equal(t, "You are a brutally honest coach.", llmFake.lastReq.SystemPrompt)
}

func TestRun_CustomKindRequiresPrompt(t *testing.T) {
	p, _, _ := testPipeline(t, nil)

	_, err := p.Run(context.Background(), RunRequest{
		UserID: uuid.New(),
		Kind:   coach.KindCustom,
	})
	require.Error(t, err)
}

func TestRun_JobFit(t *testing.T) {
	jobs := &fakeJobs{posting: "We need an SDR with Salesforce experience and grit."}
	p, llmFake, _ := testPipeline(t, func(cfg *Config) {
		cfg.Jobs = jobs
	})

	_, err := p.Run(context.Background(), RunRequest{
		UserID: uuid.New(),
		Kind:   coach.KindJobFit,
		JobURL: "https://jobs.example.com/sdr-123",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://jobs.example.com/sdr-123", jobs.fetched)
	content := llmFake.lastReq.UserContent
	assert.True(t, strings.HasPrefix(content, "RESUME:\n"))
	assert.Contains(t, content, "JOB POSTING:\nWe need an SDR with Salesforce")
	assert.Contains(t, content, "booked 30 qualified meetings")
}

func TestRun_JobFitPastedText(t *testing.T) {
	jobs := &fakeJobs{posting: "should not be used"}
	p, llmFake, _ := testPipeline(t, func(cfg *Config) {
		cfg.Jobs = jobs
	})

	_, err := p.Run(context.Background(), RunRequest{
		UserID:  uuid.New(),
		Kind:    coach.KindJobFit,
		JobText: "Pasted posting: enterprise SDR, NYC.",
	})
	require.NoError(t, err)

	assert.Empty(t, jobs.fetched, "pasted text wins over fetch")
	assert.Contains(t, llmFake.lastReq.UserContent, "Pasted posting")
}

func TestRun_JobFitRequiresPosting(t *testing.T) {
	p, llmFake, _ := testPipeline(t, func(cfg *Config) {
		cfg.Jobs = &fakeJobs{}
	})

	_, err := p.Run(context.Background(), RunRequest{UserID: uuid.New(), Kind: coach.KindJobFit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job_url or job_text")
	assert.Zero(t, llmFake.numCalls)
}

func TestRun_JobFitFetchFailure(t *testing.T) {
	p, llmFake, _ := testPipeline(t, func(cfg *Config) {
		cfg.Jobs = &fakeJobs{err: &fetchjob.Error{URL: "https://jobs.example.com/x", Message: "fetch failed"}}
	})

	_, err := p.Run(context.Background(), RunRequest{
		UserID: uuid.New(),
		Kind:   coach.KindJobFit,
		JobURL: "https://jobs.example.com/x",
	})
	require.Error(t, err)

	var fetchErr *fetchjob.Error
	assert.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, llmFake.numCalls, "fetch failure cancels the run before completion")
}

func TestRun_ContentCeilingApplied(t *testing.T) {
	long := strings.Repeat("Prospected into mid-market accounts across three regions. ", 100)
	p, llmFake, _ := testPipeline(t, func(cfg *Config) {
		cfg.Blob = &fakeBlob{data: map[string][]byte{
			"u1/resume.txt": []byte(long),
		}}
		cfg.ContentCeiling = 500
	})

	_, err := p.Run(context.Background(), RunRequest{UserID: uuid.New(), Kind: coach.KindMaster})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(llmFake.lastReq.UserContent), 500)
}
