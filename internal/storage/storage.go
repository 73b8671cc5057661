// Package storage defines the persisted companies and jobs.
package storage

import (
	"errors"
	"time"

	"github.com/spigell/job-radar/internal/ai"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// DefaultAnalysisLimit caps how many jobs one analysis run loads.
const DefaultAnalysisLimit = 50

type JobStatus string

const (
	JobStatusNew      JobStatus = "new"
	JobStatusAnalyzed JobStatus = "analyzed"
)

type CompanyStatus string

const (
	CompanyPending    CompanyStatus = "pending"
	CompanyProcessing CompanyStatus = "processing"
	CompanyFound      CompanyStatus = "found"
	CompanyScraping   CompanyStatus = "scraping"
	CompanyScraped    CompanyStatus = "scraped"
	CompanyError      CompanyStatus = "error"
)

// CompanyRef is the embedded company projection returned with a job.
type CompanyRef struct {
	Name string `json:"name"`
}

type Job struct {
	ID          string       `json:"id"`
	CompanyID   string       `json:"company_id,omitempty"`
	Title       string       `json:"title"`
	Location    *string      `json:"location"`
	Description *string      `json:"description"`
	JobURL      string       `json:"job_url"`
	Company     *CompanyRef  `json:"companies"`
	Status      JobStatus    `json:"status,omitempty"`
	Analysis    *ai.Analysis `json:"ai_analysis,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CompanyName returns the joined company name or an empty string.
func (j Job) CompanyName() string {
	if j.Company == nil {
		return ""
	}
	return j.Company.Name
}

type Company struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Status        CompanyStatus `json:"status"`
	CareerPageURL *string       `json:"career_page_url"`
	JobsScrapedAt *time.Time    `json:"jobs_scraped_at"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ScrapedJob is a listing found on a career page, before it is stored.
type ScrapedJob struct {
	Title    string
	JobURL   string
	Location *string
}
