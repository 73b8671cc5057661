package ai

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spigell/job-radar/internal/logger"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// Analyzer scores prompts with one resolved provider. Every call gets its own timeout.
type Analyzer struct {
	provider  Provider
	timeout   time.Duration
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyzer(provider Provider, timeout time.Duration, log *zap.Logger) *Analyzer {
	return &Analyzer{
		provider:  provider,
		timeout:   timeout,
		logger:    logger.WithProvider(log, provider.Name(), provider.Model()),
		maxLogLen: defaultMaxLogLength,
	}
}

// AnalyzeJob sends prompt for the job identified by jobID and parses the verdict.
func (a *Analyzer) AnalyzeJob(ctx context.Context, prompt, jobID string) (*Analysis, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	log := logger.ForJob(a.logger, jobID)
	log.Debug("llm analysis request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.provider.Complete(ctx, AnalysisRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("analyze job %s: %w", jobID, err)
	}

	log.Debug("llm analysis response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("analyze job %s: %w", jobID, err)
	}

	return analysis, nil
}
