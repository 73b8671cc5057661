// Package careers discovers company career pages and scrapes their job listings.
package careers

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrCareerPageNotFound = errors.New("career page not found")
	ErrNoCareerPage       = errors.New("company has no career page url")
)

const statusTimeout = 5 * time.Second

type CompanyStore interface {
	GetCompany(ctx context.Context, id string) (*storage.Company, error)
	SetCompanyStatus(ctx context.Context, id string, status storage.CompanyStatus) error
	SetCareerPage(ctx context.Context, id, pageURL string) error
	MarkScraped(ctx context.Context, id string, at time.Time) error
	UpsertJobs(ctx context.Context, companyID string, jobs []storage.ScrapedJob) (int, error)
	CompaniesByStatus(ctx context.Context, statuses ...storage.CompanyStatus) ([]storage.Company, error)
}

// ServerProvider hands out the LLM used for server-side company work.
type ServerProvider interface {
	Server(ctx context.Context) (ai.Provider, error)
}

// markFailed records the error state even when ctx is already cancelled.
func markFailed(ctx context.Context, store CompanyStore, log *zap.Logger, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusTimeout)
	defer cancel()

	if err := store.SetCompanyStatus(ctx, id, storage.CompanyError); err != nil {
		log.Error("failed to mark company as errored", zap.Error(err))
	}
}
