// Package analysis scores the stored jobs against a candidate profile.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency    = 10
	DefaultRequestTimeout = 45 * time.Second
	DefaultPersistTimeout = 10 * time.Second
)

type JobStore interface {
	JobsForAnalysis(ctx context.Context, limit int) ([]storage.Job, error)
	UpdateJobAnalysis(ctx context.Context, jobID string, analysis ai.Analysis) error
}

type ProviderResolver interface {
	Resolve(ctx context.Context, cfg ai.LLMConfig) (ai.Provider, error)
	DocumentReader(ctx context.Context, active ai.Provider) ai.DocumentReader
}

type ResumeExtractor interface {
	Extract(ctx context.Context, resumeURL string, reader ai.DocumentReader) (string, error)
}

type Deps struct {
	Store     JobStore
	Providers ProviderResolver
	Resume    ResumeExtractor
	Logger    *zap.Logger
}

type Options struct {
	JobLimit       int
	Concurrency    int
	RequestTimeout time.Duration
	PersistTimeout time.Duration
}

// Request is one analysis run as received from a client.
type Request struct {
	Profile   *Profile      `json:"profile"`
	LLMConfig *ai.LLMConfig `json:"llmConfig"`
}

type Summary struct {
	Loaded   int `json:"loaded"`
	Analyzed int `json:"analyzed"`
	Failed   int `json:"failed"`
	Matched  int `json:"matched"`
}

// Result holds the matched jobs, best first. Every job carries its analysis.
type Result struct {
	Jobs    []storage.Job `json:"jobs"`
	Summary Summary       `json:"summary"`
}

type outcome struct {
	job      storage.Job
	analysis *ai.Analysis
	err      error
}

type Orchestrator struct {
	deps    Deps
	opts    Options
	logger  *zap.Logger
	pending sync.WaitGroup
}

func New(deps Deps, opts Options) *Orchestrator {
	if opts.JobLimit <= 0 {
		opts.JobLimit = storage.DefaultAnalysisLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultPersistTimeout
	}

	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logger.WithFields(deps.Logger),
	}
}

// Run scores every loaded job independently. One job failing never fails the run;
// only invalid input or a failed job load does.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Profile == nil {
		return nil, &ValidationError{Field: "profile", Reason: "Profile data is required"}
	}
	profile := *req.Profile
	if err := profile.Normalize(); err != nil {
		return nil, err
	}

	var cfg ai.LLMConfig
	if req.LLMConfig != nil {
		cfg = *req.LLMConfig
	}
	kind, err := ai.ParseProviderKind(string(cfg.Provider))
	if err != nil {
		return nil, &ValidationError{Field: "llmConfig.provider", Reason: err.Error()}
	}
	cfg.Provider = kind

	log := logger.ForRun(o.logger, uuid.NewString())

	jobs, err := o.deps.Store.JobsForAnalysis(ctx, o.opts.JobLimit)
	if err != nil {
		return nil, fmt.Errorf("load jobs for analysis: %w", err)
	}
	if len(jobs) == 0 {
		log.Info("no jobs to analyze")
		return &Result{Jobs: []storage.Job{}}, nil
	}

	provider, providerErr := o.deps.Providers.Resolve(ctx, cfg)
	if providerErr != nil {
		log.Warn("llm provider unavailable, every job will fail", zap.Error(providerErr))
	}

	// Without a usable provider nothing gets scored, so the resume is never sent anywhere.
	var resumeText string
	if providerErr == nil {
		resumeText = o.resumeText(ctx, log, profile.ResumeURL, provider)
	}

	log.Info("analysis started",
		zap.String("provider", string(kind)),
		zap.Int("jobs", len(jobs)),
		zap.Bool("with_resume", resumeText != ""),
	)

	outcomes := o.analyzeAll(ctx, log, profile, resumeText, provider, providerErr, jobs)
	result := collect(outcomes)

	log.Info("analysis finished",
		zap.Int("analyzed", result.Summary.Analyzed),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("matched", result.Summary.Matched),
	)

	return result, nil
}

// Wait blocks until every background persistence write has finished.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

func (o *Orchestrator) resumeText(ctx context.Context, log *zap.Logger, resumeURL string, provider ai.Provider) string {
	if resumeURL == "" || o.deps.Resume == nil {
		return ""
	}

	reader := o.deps.Providers.DocumentReader(ctx, provider)
	if reader == nil {
		log.Warn("no document reader available, analyzing without resume")
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.RequestTimeout)
	defer cancel()

	text, err := o.deps.Resume.Extract(ctx, resumeURL, reader)
	if err != nil {
		log.Warn("resume extraction failed, analyzing without resume", zap.Error(err))
		return ""
	}

	return text
}

func (o *Orchestrator) analyzeAll(
	ctx context.Context,
	log *zap.Logger,
	profile Profile,
	resumeText string,
	provider ai.Provider,
	providerErr error,
	jobs []storage.Job,
) []outcome {
	var analyzer *ai.Analyzer
	if providerErr == nil {
		analyzer = ai.NewAnalyzer(provider, o.opts.RequestTimeout, log)
	}

	outcomes := make([]outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = o.analyzeOne(ctx, logger.ForJob(log, job.ID), analyzer, providerErr, profile, resumeText, job)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (o *Orchestrator) analyzeOne(
	ctx context.Context,
	log *zap.Logger,
	analyzer *ai.Analyzer,
	providerErr error,
	profile Profile,
	resumeText string,
	job storage.Job,
) (out outcome) {
	out.job = job

	defer func() {
		if r := recover(); r != nil {
			out.analysis = nil
			out.err = fmt.Errorf("analyze job %s: panic: %v", job.ID, r)
			log.Error("job analysis panicked", zap.Any("panic", r))
		}
	}()

	if providerErr != nil {
		out.err = fmt.Errorf("analyze job %s: %w", job.ID, providerErr)
		return out
	}

	analysis, err := analyzer.AnalyzeJob(ctx, BuildPrompt(profile, job, resumeText), job.ID)
	if err != nil {
		out.err = err
		log.Warn("job analysis failed", zap.Error(err))
		return out
	}

	out.analysis = analysis
	o.persist(ctx, log, job.ID, *analysis)

	return out
}

// persist writes the analysis in the background. The write outlives the
// request context and its failure never changes the run result.
func (o *Orchestrator) persist(ctx context.Context, log *zap.Logger, jobID string, analysis ai.Analysis) {
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.PersistTimeout)
		defer cancel()

		if err := o.deps.Store.UpdateJobAnalysis(ctx, jobID, analysis); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Warn("analyzed job no longer exists", zap.Error(err))
				return
			}
			log.Error("failed to persist job analysis", zap.Error(err))
			return
		}
		log.Debug("job analysis persisted", zap.Int("match_score", analysis.MatchScore))
	}()
}

func collect(outcomes []outcome) *Result {
	result := &Result{
		Jobs:    make([]storage.Job, 0),
		Summary: Summary{Loaded: len(outcomes)},
	}

	for _, out := range outcomes {
		if out.err != nil || out.analysis == nil {
			result.Summary.Failed++
			continue
		}
		result.Summary.Analyzed++

		if !out.analysis.IsMatch {
			continue
		}
		job := out.job
		job.Analysis = out.analysis
		result.Jobs = append(result.Jobs, job)
	}

	sort.SliceStable(result.Jobs, func(i, j int) bool {
		return result.Jobs[i].Analysis.MatchScore > result.Jobs[j].Analysis.MatchScore
	})
	result.Summary.Matched = len(result.Jobs)

	return result
}
