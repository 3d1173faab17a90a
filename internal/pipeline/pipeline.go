// Package pipeline orchestrates the resume-to-insight flow: fetch the
// resume blob, extract and normalize its text, assemble the prompt,
// call the completion client, structure the reply, and persist the
// result. All collaborators are injected at construction; pipeline
// methods never read ambient environment state.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/extract"
	"github.com/jonathan/sdr-coach/internal/fetchjob"
	"github.com/jonathan/sdr-coach/internal/insight"
	"github.com/jonathan/sdr-coach/internal/llm"
	"github.com/jonathan/sdr-coach/internal/normalize"
	"github.com/jonathan/sdr-coach/internal/profile"
	"github.com/jonathan/sdr-coach/internal/prompt"
	"github.com/jonathan/sdr-coach/internal/structure"
)

// BlobDownloader fetches resume bytes from the storage collaborator.
type BlobDownloader interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// ProfileReader reads the per-user resume pointer.
type ProfileReader interface {
	GetResumePointer(ctx context.Context, userID uuid.UUID) (*profile.ResumePointer, error)
}

// InsightSaver persists a completed analysis.
type InsightSaver interface {
	Save(ctx context.Context, userID uuid.UUID, kind coach.Kind, rawText, resumeVersion string) (*insight.Analysis, error)
}

// JobFetcher retrieves a job posting by URL for the job-fit kind.
type JobFetcher interface {
	Fetch(ctx context.Context, url string) (*fetchjob.Posting, error)
}

// Config wires the pipeline's collaborators.
type Config struct {
	LLM      llm.Client
	Blob     BlobDownloader
	Profiles ProfileReader
	Insights InsightSaver
	Jobs     JobFetcher
	// ContentCeiling bounds normalized resume content; zero means the
	// default ceiling.
	ContentCeiling int
}

// Pipeline runs analyses end to end.
type Pipeline struct {
	cfg Config
}

// New constructs a pipeline from explicit configuration.
func New(cfg Config) (*Pipeline, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("pipeline requires an LLM client")
	}
	if cfg.Blob == nil || cfg.Profiles == nil || cfg.Insights == nil {
		return nil, fmt.Errorf("pipeline requires blob, profile, and insight collaborators")
	}
	if cfg.ContentCeiling <= 0 {
		cfg.ContentCeiling = normalize.DefaultCeiling
	}
	return &Pipeline{cfg: cfg}, nil
}

// RunRequest describes one analysis invocation.
type RunRequest struct {
	UserID uuid.UUID
	Kind   coach.Kind
	// JobURL or JobText supplies the posting for the jobFit kind.
	JobURL  string
	JobText string
	// ExtraInstruction is appended to the user turn.
	ExtraInstruction string
	// CustomSystemPrompt is required for the custom kind and ignored
	// otherwise.
	CustomSystemPrompt string
}

// Outcome is the result of one pipeline run. A failed save does not
// discard the analysis: the caller still gets the result in-session,
// with SaveErr recording why it will not appear in history.
type Outcome struct {
	Analysis   *insight.Analysis
	RawText    string
	Structured structure.Result
	Provenance extract.Provenance
	Degraded   bool
	SaveErr    error
}

// Run executes one sequential analysis. The only suspension points are
// the blob download, the optional job-posting fetch, the completion
// call, and the save.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*Outcome, error) {
	if !coach.Valid(req.Kind) {
		return nil, fmt.Errorf("unknown analysis kind %q", req.Kind)
	}

	pointer, err := p.cfg.Profiles.GetResumePointer(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var (
		extracted extract.Extracted
		posting   string
	)
	if req.Kind == coach.KindJobFit {
		// The resume and job-posting branches are independent; run them
		// concurrently.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var rerr error
			extracted, rerr = p.extractResume(gctx, pointer)
			return rerr
		})
		g.Go(func() error {
			var jerr error
			posting, jerr = p.jobPosting(gctx, req)
			return jerr
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		extracted, err = p.extractResume(ctx, pointer)
		if err != nil {
			return nil, err
		}
	}

	content := normalize.NormalizeWithCeiling(extracted.Text, p.cfg.ContentCeiling)
	if req.Kind == coach.KindJobFit {
		content = "RESUME:\n" + content + "\n\nJOB POSTING:\n" + posting
	}

	var promptReq prompt.Request
	if req.Kind == coach.KindCustom {
		promptReq, err = prompt.BuildCustom(req.CustomSystemPrompt, content, req.ExtraInstruction)
	} else {
		promptReq, err = prompt.Build(req.Kind, content, req.ExtraInstruction)
	}
	if err != nil {
		return nil, err
	}

	rawText, err := p.cfg.LLM.Complete(ctx, promptReq)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		RawText:    rawText,
		Structured: structure.Structure(rawText),
		Provenance: extracted.Provenance,
		Degraded:   extracted.Degraded,
	}

	analysis, saveErr := p.cfg.Insights.Save(ctx, req.UserID, req.Kind, rawText, pointer.Path)
	if saveErr != nil {
		// The analysis is still usable in-session; it just will not
		// appear in history.
		log.Printf("pipeline: analysis save failed for user %s: %v", req.UserID, saveErr)
		outcome.SaveErr = saveErr
		return outcome, nil
	}
	outcome.Analysis = analysis
	return outcome, nil
}

// extractResume downloads the resume blob fresh and extracts its text.
func (p *Pipeline) extractResume(ctx context.Context, pointer *profile.ResumePointer) (extract.Extracted, error) {
	data, err := p.cfg.Blob.Download(ctx, pointer.Path)
	if err != nil {
		return extract.Extracted{}, fmt.Errorf("failed to fetch resume: %w", err)
	}
	extracted, err := extract.Extract(data, pointer.MediaType)
	if err != nil {
		return extract.Extracted{}, err
	}
	if extracted.Degraded {
		log.Printf("pipeline: resume extraction degraded (%s) for %s", extracted.Provenance, pointer.Path)
	}
	return extracted, nil
}

// jobPosting resolves the posting content for a job-fit run, fetching
// by URL when no pasted text was supplied.
func (p *Pipeline) jobPosting(ctx context.Context, req RunRequest) (string, error) {
	if strings.TrimSpace(req.JobText) != "" {
		return req.JobText, nil
	}
	if strings.TrimSpace(req.JobURL) == "" {
		return "", fmt.Errorf("job-fit analysis requires job_url or job_text")
	}
	if p.cfg.Jobs == nil {
		return "", &coach.ConfigurationError{Setting: "job fetcher", Hint: "job posting fetch is not configured"}
	}
	posting, err := p.cfg.Jobs.Fetch(ctx, req.JobURL)
	if err != nil {
		return "", err
	}
	return posting.Text, nil
}
