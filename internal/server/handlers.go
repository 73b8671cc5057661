package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spigell/job-radar/internal/analysis"
	"github.com/spigell/job-radar/internal/careers"
	"github.com/spigell/job-radar/internal/storage"
	"go.uber.org/zap"
)

type companyRequest struct {
	CompanyID string `json:"companyId"`
}

type createCompanyRequest struct {
	Name string `json:"name"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) analyzeJobs(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.deps.Analyzer.Run(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) findCareerPage(c *gin.Context) {
	id, ok := bindCompanyID(c)
	if !ok {
		return
	}

	pageURL, err := h.deps.Discoverer.Discover(c.Request.Context(), id)
	if errors.Is(err, careers.ErrCareerPageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Career page not found."})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Career page found.", "career_page_url": pageURL})
}

func (h *handler) scrapeJobs(c *gin.Context) {
	id, ok := bindCompanyID(c)
	if !ok {
		return
	}

	n, err := h.deps.Scraper.Scrape(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%d jobs scraped successfully.", n)})
}

func (h *handler) createCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	company, err := h.deps.Catalog.CreateCompany(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, company)
}

func (h *handler) listCompanies(c *gin.Context) {
	companies, err := h.deps.Catalog.ListCompanies(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *handler) listJobs(c *gin.Context) {
	jobs, err := h.deps.Catalog.ListJobs(c.Request.Context(), DefaultJobListLimit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func bindCompanyID(c *gin.Context) (string, bool) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return "", false
	}
	id := strings.TrimSpace(req.CompanyID)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companyId is required"})
		return "", false
	}
	return id, true
}

// fail maps domain errors to status codes. Unknown errors are 500.
func (h *handler) fail(c *gin.Context, err error) {
	var validationErr *analysis.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrConflict), errors.Is(err, careers.ErrNoCareerPage):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
