package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spigell/job-radar/internal/ai/provider"
	"github.com/spigell/job-radar/internal/analysis"
	"github.com/spigell/job-radar/internal/cache"
	"github.com/spigell/job-radar/internal/careers"
	"github.com/spigell/job-radar/internal/resume"
	"github.com/spigell/job-radar/internal/secrets"
	"github.com/spigell/job-radar/internal/storage/postgres"
	"go.uber.org/zap"
)

// services holds everything a command needs. Build it once with newServices.
type services struct {
	pool      *pgxpool.Pool
	redis     *redis.Client
	store     *postgres.Store
	resolver  *provider.Resolver
	analyzer  *analysis.Orchestrator
	finder    *careers.Finder
	scraper   *careers.Scraper
	scheduler *careers.Scheduler
}

func (s *services) Close() {
	if s.analyzer != nil {
		s.analyzer.Wait()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func newStore(ctx context.Context, config *Config) (*pgxpool.Pool, *postgres.Store, error) {
	if config.Database == nil || strings.TrimSpace(config.Database.URL) == "" {
		return nil, nil, fmt.Errorf("database url is required (set database.url or DATABASE_URL)")
	}

	pool, err := postgres.NewPool(ctx, config.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return pool, postgres.NewStore(pool), nil
}

func newServices(ctx context.Context, config *Config, logger *zap.Logger) (*services, error) {
	pool, store, err := newStore(ctx, config)
	if err != nil {
		return nil, err
	}
	svc := &services{pool: pool, store: store}

	defaults, err := providerDefaults(config)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.resolver = provider.NewResolver(defaults, logger.Named("provider"))

	extractor, err := newExtractor(ctx, svc, config, logger)
	if err != nil {
		svc.Close()
		return nil, err
	}

	svc.analyzer = analysis.New(analysis.Deps{
		Store:     store,
		Providers: svc.resolver,
		Resume:    extractor,
		Logger:    logger.Named("analysis"),
	}, analysis.Options{
		JobLimit:       config.Analysis.JobLimit,
		Concurrency:    config.Analysis.Concurrency,
		RequestTimeout: config.AI.RequestTimeout,
		PersistTimeout: config.Analysis.PersistTimeout,
	})

	svc.finder = careers.NewFinder(store, svc.resolver, logger.Named("finder"))
	fetcher := careers.NewCollyFetcher(config.Scraper.UserAgent, config.Scraper.Timeout)
	svc.scraper = careers.NewScraper(store, svc.resolver, fetcher, config.Scraper.MaxHTMLChars, logger.Named("scraper"))
	svc.scheduler = careers.NewScheduler(store, svc.scraper, config.Scheduler.Spec, logger.Named("scheduler"))

	return svc, nil
}

func providerDefaults(config *Config) (provider.Defaults, error) {
	ai := config.AI

	geminiKey, err := secrets.Optional(secrets.Source{
		Name:  "gemini api key",
		Value: ai.Gemini.APIKey,
		File:  ai.Gemini.APIKeyFile,
	})
	if err != nil {
		return provider.Defaults{}, err
	}

	openaiKey, err := secrets.Optional(secrets.Source{
		Name:  "openai api key",
		Value: ai.OpenAI.APIKey,
		File:  ai.OpenAI.APIKeyFile,
	})
	if err != nil {
		return provider.Defaults{}, err
	}

	defaults := provider.Defaults{
		GeminiAPIKey:          geminiKey,
		GeminiModel:           ai.Gemini.Model,
		GeminiExtractionModel: ai.Gemini.ExtractionModel,
		OpenAIAPIKey:          openaiKey,
		OpenAIModel:           ai.OpenAI.Model,
		OpenAIBaseURL:         ai.OpenAI.BaseURL,
		OllamaModel:           ai.Ollama.Model,
		HTTPClient:            &http.Client{},
	}
	if config.Resume.LocalFallback {
		defaults.LocalReader = resume.LocalReader{}
	}

	return defaults, nil
}

func newExtractor(ctx context.Context, svc *services, config *Config, logger *zap.Logger) (*resume.Extractor, error) {
	httpFetcher := resume.NewHTTPFetcher(&http.Client{}, config.Resume.MaxBytes)
	fetcher := resume.SchemeFetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
	}

	s3Fetcher, err := newS3Fetcher(ctx, config)
	if err != nil {
		logger.Warn("s3 resume urls disabled", zap.Error(err))
	} else {
		fetcher["s3"] = s3Fetcher
	}

	var resumeCache resume.Cache
	if config.Redis != nil && strings.TrimSpace(config.Redis.URL) != "" {
		rdb, err := cache.NewRedisClient(ctx, config.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		svc.redis = rdb
		resumeCache = cache.NewResumeCache(rdb, config.Redis.ResumeTTL)
	}

	return resume.NewExtractor(fetcher, resumeCache, logger.Named("resume")), nil
}

func newS3Fetcher(ctx context.Context, config *Config) (*resume.S3Fetcher, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	var s3Opts []func(*s3.Options)

	if s3cfg := config.Resume.S3; s3cfg != nil {
		if s3cfg.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(s3cfg.Region))
		}
		if s3cfg.Endpoint != "" {
			endpoint := s3cfg.Endpoint
			s3Opts = append(s3Opts, func(o *s3.Options) {
				o.BaseEndpoint = aws.String(endpoint)
				o.UsePathStyle = true
			})
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return resume.NewS3Fetcher(awsCfg, config.Resume.MaxBytes, s3Opts...), nil
}
