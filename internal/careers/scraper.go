package careers

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/storage"
	"go.uber.org/zap"
)

const (
	DefaultMaxHTMLChars = 30000
	DefaultUserAgent    = "job-radar"
	defaultPageTimeout  = 30 * time.Second
)

//go:embed scrape_prompt.md
var scrapePromptTemplate string

// PageFetcher downloads the HTML of a career page.
type PageFetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

type CollyFetcher struct {
	userAgent string
	timeout   time.Duration
}

func NewCollyFetcher(userAgent string, timeout time.Duration) *CollyFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = defaultPageTimeout
	}
	return &CollyFetcher{userAgent: userAgent, timeout: timeout}
}

func (c *CollyFetcher) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	collector := colly.NewCollector(
		colly.UserAgent(c.userAgent),
		colly.StdlibContext(ctx),
	)
	collector.SetRequestTimeout(c.timeout)

	var body string
	collector.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})

	if err := collector.Visit(pageURL); err != nil {
		return "", fmt.Errorf("fetch career page %s: %w", pageURL, err)
	}

	return body, nil
}

type listing struct {
	Title    string `mapstructure:"title"`
	JobURL   string `mapstructure:"job_url"`
	Location string `mapstructure:"location"`
}

type Scraper struct {
	store        CompanyStore
	providers    ServerProvider
	fetcher      PageFetcher
	maxHTMLChars int
	logger       *zap.Logger
}

func NewScraper(store CompanyStore, providers ServerProvider, fetcher PageFetcher, maxHTMLChars int, log *zap.Logger) *Scraper {
	if maxHTMLChars <= 0 {
		maxHTMLChars = DefaultMaxHTMLChars
	}
	return &Scraper{
		store:        store,
		providers:    providers,
		fetcher:      fetcher,
		maxHTMLChars: maxHTMLChars,
		logger:       logger.WithFields(log),
	}
}

// Scrape extracts the listings from a company's career page and upserts them.
// It returns the number of listings stored.
func (s *Scraper) Scrape(ctx context.Context, companyID string) (int, error) {
	log := logger.ForCompany(s.logger, companyID)

	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return 0, err
	}
	if company.CareerPageURL == nil || *company.CareerPageURL == "" {
		return 0, fmt.Errorf("company %s: %w", company.Name, ErrNoCareerPage)
	}
	pageURL := *company.CareerPageURL

	if err := s.store.SetCompanyStatus(ctx, companyID, storage.CompanyScraping); err != nil {
		return 0, err
	}

	n, err := s.scrape(ctx, log, company.Name, companyID, pageURL)
	if err != nil {
		markFailed(ctx, s.store, log, companyID)
		return 0, err
	}

	if err := s.store.MarkScraped(ctx, companyID, time.Now().UTC()); err != nil {
		markFailed(ctx, s.store, log, companyID)
		return 0, err
	}

	log.Info("jobs scraped", zap.Int("jobs", n))
	return n, nil
}

func (s *Scraper) scrape(ctx context.Context, log *zap.Logger, company, companyID, pageURL string) (int, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return 0, fmt.Errorf("invalid career page url %q", pageURL)
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host}

	html, err := s.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return 0, err
	}
	log.Debug("career page downloaded", zap.Int("chars", utf8.RuneCountInString(html)))

	provider, err := s.providers.Server(ctx)
	if err != nil {
		return 0, fmt.Errorf("scrape jobs: %w", err)
	}

	prompt := strings.NewReplacer(
		"{{COMPANY}}", company,
		"{{BASE_URL}}", origin.String(),
		"{{HTML}}", truncateRunes(html, s.maxHTMLChars),
	).Replace(scrapePromptTemplate)

	raw, err := provider.Complete(ctx, ai.Request{Prompt: prompt, Format: ai.FormatJSON})
	if err != nil {
		return 0, fmt.Errorf("scrape jobs: %w", err)
	}

	jobs, err := parseListings(raw, origin)
	if err != nil {
		return 0, err
	}

	return s.store.UpsertJobs(ctx, companyID, jobs)
}

// parseListings decodes the model answer and resolves relative job URLs against origin.
// Entries without a title or URL are dropped.
func parseListings(raw string, origin *url.URL) ([]storage.ScrapedJob, error) {
	arr, ok := ai.ExtractJSONArray(raw)
	if !ok {
		return nil, &ai.ParseError{Raw: raw, Err: fmt.Errorf("no json array found")}
	}

	var data []map[string]any
	if err := json.Unmarshal([]byte(arr), &data); err != nil {
		return nil, &ai.ParseError{Raw: raw, Err: err}
	}

	var listings []listing
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &listings,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, &ai.ParseError{Raw: raw, Err: err}
	}

	jobs := make([]storage.ScrapedJob, 0, len(listings))
	for _, l := range listings {
		title := strings.TrimSpace(l.Title)
		ref, err := url.Parse(strings.TrimSpace(l.JobURL))
		if title == "" || err != nil || l.JobURL == "" {
			continue
		}

		job := storage.ScrapedJob{Title: title, JobURL: origin.ResolveReference(ref).String()}
		if loc := strings.TrimSpace(l.Location); loc != "" {
			job.Location = &loc
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
