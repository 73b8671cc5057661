package careers

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spigell/job-radar/internal/storage"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 24h"

type companyScraper interface {
	Scrape(ctx context.Context, companyID string) (int, error)
}

// Scheduler periodically scrapes every company with a known career page.
type Scheduler struct {
	cron    *cron.Cron
	store   CompanyStore
	scraper companyScraper
	spec    string
	logger  *zap.Logger
}

func NewScheduler(store CompanyStore, scraper companyScraper, spec string, logger *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSchedule
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cronLogger{logger.Sugar()})),
		store:   store,
		scraper: scraper,
		spec:    spec,
		logger:  logger,
	}
}

// Start registers the scrape job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce scrapes every eligible company in turn. Failures are logged and skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	companies, err := s.store.CompaniesByStatus(ctx, storage.CompanyFound, storage.CompanyScraped)
	if err != nil {
		s.logger.Error("failed to load companies for scraping", zap.Error(err))
		return
	}

	if len(companies) == 0 {
		s.logger.Info("no companies to scrape")
		return
	}

	var scraped, failed int
	for _, c := range companies {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.scraper.Scrape(ctx, c.ID); err != nil {
			failed++
			s.logger.Warn("scheduled scrape failed", zap.String("company_id", c.ID), zap.Error(err))
			continue
		}
		scraped++
	}

	s.logger.Info("scrape cycle complete", zap.Int("scraped", scraped), zap.Int("failed", failed))
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
