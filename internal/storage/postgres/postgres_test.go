package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/storage"
)

// newTestStore connects to JOB_RADAR_TEST_DATABASE_URL. The database is wiped.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("JOB_RADAR_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("JOB_RADAR_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	store := NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE jobs, companies`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return store
}

func TestCompanyLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	company, err := store.CreateCompany(ctx, "Acme")
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	if company.Status != storage.CompanyPending {
		t.Fatalf("expected pending status, got %q", company.Status)
	}

	if _, err := store.CreateCompany(ctx, "Acme"); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := store.SetCareerPage(ctx, company.ID, "https://acme.example/careers"); err != nil {
		t.Fatalf("set career page: %v", err)
	}

	found, err := store.CompaniesByStatus(ctx, storage.CompanyFound, storage.CompanyScraped)
	if err != nil {
		t.Fatalf("companies by status: %v", err)
	}
	if len(found) != 1 || found[0].CareerPageURL == nil || *found[0].CareerPageURL != "https://acme.example/careers" {
		t.Fatalf("unexpected companies: %+v", found)
	}

	if _, err := store.GetCompany(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	company, err := store.CreateCompany(ctx, "Globex")
	if err != nil {
		t.Fatalf("create company: %v", err)
	}

	remote := "Remote"
	listings := []storage.ScrapedJob{
		{Title: "Go Engineer", JobURL: "https://globex.example/jobs/1", Location: &remote},
		{Title: "SRE", JobURL: "https://globex.example/jobs/2"},
	}
	if n, err := store.UpsertJobs(ctx, company.ID, listings); err != nil || n != 2 {
		t.Fatalf("upsert jobs: n=%d err=%v", n, err)
	}
	// A second scrape of the same URLs must not duplicate rows.
	if _, err := store.UpsertJobs(ctx, company.ID, listings); err != nil {
		t.Fatalf("re-upsert jobs: %v", err)
	}

	jobs, err := store.JobsForAnalysis(ctx, storage.DefaultAnalysisLimit)
	if err != nil {
		t.Fatalf("jobs for analysis: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].CompanyName() != "Globex" || jobs[0].Status != storage.JobStatusNew {
		t.Fatalf("unexpected job: %+v", jobs[0])
	}

	analysis := ai.Analysis{MatchScore: 82, Reasoning: "Good", IsMatch: true}
	if err := store.UpdateJobAnalysis(ctx, jobs[0].ID, analysis); err != nil {
		t.Fatalf("update analysis: %v", err)
	}
	if err := store.UpdateJobAnalysis(ctx, "missing", analysis); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	listed, err := store.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	var analyzed int
	for _, j := range listed {
		if j.Status == storage.JobStatusAnalyzed && j.Analysis != nil && *j.Analysis == analysis {
			analyzed++
		}
	}
	if analyzed != 1 {
		t.Fatalf("expected exactly one analyzed job, got %d", analyzed)
	}
}
