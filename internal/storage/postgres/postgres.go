// Package postgres is the PostgreSQL implementation of the job and company store.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/storage"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// NewPool creates and verifies a pgxpool connection pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const selectJobs = `
	SELECT j.id, COALESCE(j.company_id, ''), j.title, j.location, j.description, j.job_url,
	       c.name, j.status, j.ai_analysis, j.created_at
	FROM jobs j
	LEFT JOIN companies c ON c.id = j.company_id
	ORDER BY j.created_at DESC, j.id
	LIMIT $1`

// JobsForAnalysis returns up to limit jobs, newest first.
func (s *Store) JobsForAnalysis(ctx context.Context, limit int) ([]storage.Job, error) {
	if limit <= 0 {
		limit = storage.DefaultAnalysisLimit
	}
	return s.queryJobs(ctx, limit)
}

// ListJobs returns scraped jobs with their company name and any stored analysis.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]storage.Job, error) {
	return s.queryJobs(ctx, limit)
}

func (s *Store) queryJobs(ctx context.Context, limit int) ([]storage.Job, error) {
	rows, err := s.pool.Query(ctx, selectJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]storage.Job, 0)
	for rows.Next() {
		var (
			j           storage.Job
			companyName *string
			analysis    []byte
		)
		if err := rows.Scan(
			&j.ID, &j.CompanyID, &j.Title, &j.Location, &j.Description, &j.JobURL,
			&companyName, &j.Status, &analysis, &j.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if companyName != nil {
			j.Company = &storage.CompanyRef{Name: *companyName}
		}
		if len(analysis) > 0 {
			var a ai.Analysis
			if err := json.Unmarshal(analysis, &a); err != nil {
				return nil, fmt.Errorf("decode analysis of job %s: %w", j.ID, err)
			}
			j.Analysis = &a
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	return jobs, nil
}

// UpdateJobAnalysis stores the analysis and marks the job analyzed.
func (s *Store) UpdateJobAnalysis(ctx context.Context, jobID string, analysis ai.Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET ai_analysis = $2, status = $3 WHERE id = $1`,
		jobID, payload, storage.JobStatusAnalyzed,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", jobID, storage.ErrNotFound)
	}

	return nil
}

const companyColumns = `id, name, status, career_page_url, jobs_scraped_at, created_at`

func scanCompany(row pgx.Row) (*storage.Company, error) {
	var c storage.Company
	if err := row.Scan(&c.ID, &c.Name, &c.Status, &c.CareerPageURL, &c.JobsScrapedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCompany(ctx context.Context, name string) (*storage.Company, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO companies (id, name, status) VALUES ($1, $2, $3) RETURNING `+companyColumns,
		uuid.NewString(), name, storage.CompanyPending,
	)
	c, err := scanCompany(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("company %q: %w", name, storage.ErrConflict)
		}
		return nil, fmt.Errorf("insert company: %w", err)
	}
	return c, nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*storage.Company, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("company %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get company %s: %w", id, err)
	}
	return c, nil
}

// ListCompanies returns companies newest first.
func (s *Store) ListCompanies(ctx context.Context) ([]storage.Company, error) {
	return s.listCompanies(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY created_at DESC`)
}

// CompaniesByStatus returns companies in any of the given states, oldest first.
func (s *Store) CompaniesByStatus(ctx context.Context, statuses ...storage.CompanyStatus) ([]storage.Company, error) {
	values := make([]string, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}
	return s.listCompanies(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE status = ANY($1) ORDER BY created_at`,
		values,
	)
}

func (s *Store) listCompanies(ctx context.Context, query string, args ...any) ([]storage.Company, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	companies := make([]storage.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

func (s *Store) SetCompanyStatus(ctx context.Context, id string, status storage.CompanyStatus) error {
	return s.execCompany(ctx, id, `UPDATE companies SET status = $2 WHERE id = $1`, status)
}

// SetCareerPage records a discovered career page and marks the company found.
func (s *Store) SetCareerPage(ctx context.Context, id, pageURL string) error {
	return s.execCompany(ctx, id,
		`UPDATE companies SET status = $2, career_page_url = $3 WHERE id = $1`,
		storage.CompanyFound, pageURL,
	)
}

func (s *Store) MarkScraped(ctx context.Context, id string, at time.Time) error {
	return s.execCompany(ctx, id,
		`UPDATE companies SET status = $2, jobs_scraped_at = $3 WHERE id = $1`,
		storage.CompanyScraped, at,
	)
}

func (s *Store) execCompany(ctx context.Context, id, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update company %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update company %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

const upsertJob = `
	INSERT INTO jobs (id, company_id, title, location, job_url, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (company_id, job_url)
	DO UPDATE SET title = EXCLUDED.title, location = EXCLUDED.location`

// UpsertJobs inserts scraped listings, keyed by company and job URL.
func (s *Store) UpsertJobs(ctx context.Context, companyID string, jobs []storage.ScrapedJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, j := range jobs {
		batch.Queue(upsertJob, uuid.NewString(), companyID, j.Title, j.Location, j.JobURL, storage.JobStatusNew)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range jobs {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("upsert jobs for company %s: %w", companyID, err)
		}
	}

	return len(jobs), nil
}
