package careers

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/storage"
	"go.uber.org/zap"
)

const notFoundAnswer = "NOT_FOUND"

type Finder struct {
	store     CompanyStore
	providers ServerProvider
	logger    *zap.Logger
}

func NewFinder(store CompanyStore, providers ServerProvider, log *zap.Logger) *Finder {
	return &Finder{store: store, providers: providers, logger: logger.WithFields(log)}
}

func discoverPrompt(company string) string {
	return fmt.Sprintf(
		"Find the exact career or jobs page URL for the company %q. "+
			"I need the direct link to where the job listings are. "+
			"If you are certain you found it, return only the URL. "+
			"If you are unsure or cannot find it, return %q.",
		company, notFoundAnswer,
	)
}

// Discover asks the LLM for the career page of a company and stores it.
// It returns ErrCareerPageNotFound when the model has no usable answer.
func (f *Finder) Discover(ctx context.Context, companyID string) (string, error) {
	log := logger.ForCompany(f.logger, companyID)

	company, err := f.store.GetCompany(ctx, companyID)
	if err != nil {
		return "", err
	}

	if err := f.store.SetCompanyStatus(ctx, companyID, storage.CompanyProcessing); err != nil {
		return "", err
	}

	pageURL, err := f.ask(ctx, company.Name)
	if err != nil {
		markFailed(ctx, f.store, log, companyID)
		return "", err
	}

	if !strings.HasPrefix(pageURL, "http") {
		log.Info("career page not found", zap.String("answer", logger.TruncateForLog(pageURL, 100)))
		markFailed(ctx, f.store, log, companyID)
		return "", fmt.Errorf("company %s: %w", company.Name, ErrCareerPageNotFound)
	}

	if err := f.store.SetCareerPage(ctx, companyID, pageURL); err != nil {
		markFailed(ctx, f.store, log, companyID)
		return "", err
	}

	log.Info("career page found", zap.String("url", pageURL))
	return pageURL, nil
}

func (f *Finder) ask(ctx context.Context, company string) (string, error) {
	provider, err := f.providers.Server(ctx)
	if err != nil {
		return "", fmt.Errorf("career page discovery: %w", err)
	}

	answer, err := provider.Complete(ctx, ai.Request{Prompt: discoverPrompt(company), Format: ai.FormatText})
	if err != nil {
		return "", fmt.Errorf("career page discovery: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return notFoundAnswer, nil
	}
	return answer, nil
}
