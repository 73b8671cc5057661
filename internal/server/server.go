// Package server exposes analysis and company operations over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spigell/job-radar/internal/analysis"
	"github.com/spigell/job-radar/internal/storage"
	"go.uber.org/zap"
)

const DefaultJobListLimit = 200

type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

type Catalog interface {
	CreateCompany(ctx context.Context, name string) (*storage.Company, error)
	ListCompanies(ctx context.Context) ([]storage.Company, error)
	ListJobs(ctx context.Context, limit int) ([]storage.Job, error)
}

type Discoverer interface {
	Discover(ctx context.Context, companyID string) (string, error)
}

type JobScraper interface {
	Scrape(ctx context.Context, companyID string) (int, error)
}

type Deps struct {
	Analyzer   Analyzer
	Catalog    Catalog
	Discoverer Discoverer
	Scraper    JobScraper
	Logger     *zap.Logger
}

type Config struct {
	// CORSOrigins restricts browser origins. Empty allows every origin.
	CORSOrigins []string
}

type handler struct {
	deps   Deps
	logger *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config, deps Deps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(log), cors.New(corsConfig(cfg.CORSOrigins)))

	h := &handler{deps: deps, logger: log}

	r.GET("/health", h.health)
	r.POST("/analyze-jobs", h.analyzeJobs)
	r.POST("/find-career-page", h.findCareerPage)
	r.POST("/scrape-jobs", h.scrapeJobs)
	r.POST("/companies", h.createCompany)
	r.GET("/companies", h.listCompanies)
	r.GET("/jobs", h.listJobs)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		OptionsResponseStatusCode: http.StatusOK,
		MaxAge:                    12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
