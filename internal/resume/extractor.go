// Package resume downloads a candidate's resume and turns it into plain text.
package resume

import (
	"context"
	"strings"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/logger"
	"go.uber.org/zap"
)

// Instruction is sent alongside the document to the reading model.
const Instruction = "You are an expert ATS. Extract all text from this document. " +
	"Respond with only the raw text content from the resume, without any commentary or formatting."

// Cache stores extracted text by resume URL.
type Cache interface {
	Get(ctx context.Context, resumeURL string) (string, bool, error)
	Set(ctx context.Context, resumeURL, text string) error
}

type Extractor struct {
	fetcher Fetcher
	cache   Cache
	logger  *zap.Logger
}

// NewExtractor builds an Extractor. cache may be nil.
func NewExtractor(fetcher Fetcher, cache Cache, log *zap.Logger) *Extractor {
	return &Extractor{fetcher: fetcher, cache: cache, logger: logger.WithFields(log)}
}

// Extract returns the text of the resume at resumeURL, read by reader.
// An empty URL or a document without text yields "" and no error.
func (e *Extractor) Extract(ctx context.Context, resumeURL string, reader ai.DocumentReader) (string, error) {
	resumeURL = strings.TrimSpace(resumeURL)
	if resumeURL == "" {
		return "", nil
	}

	if text, ok := e.cached(ctx, resumeURL); ok {
		return text, nil
	}

	mimeType, err := MIMEType(resumeURL)
	if err != nil {
		return "", err
	}

	data, err := e.fetcher.Fetch(ctx, resumeURL)
	if err != nil {
		return "", err
	}

	e.logger.Debug("resume downloaded", zap.String("mime_type", mimeType), zap.Int("bytes", len(data)))

	text, err := reader.ReadDocument(ctx, ai.Document{MIMEType: mimeType, Data: data}, Instruction)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		e.logger.Warn("could not extract text from resume, proceeding without it")
		return "", nil
	}

	e.store(ctx, resumeURL, text)
	return text, nil
}

func (e *Extractor) cached(ctx context.Context, resumeURL string) (string, bool) {
	if e.cache == nil {
		return "", false
	}

	text, ok, err := e.cache.Get(ctx, resumeURL)
	if err != nil {
		e.logger.Warn("resume cache lookup failed", zap.Error(err))
		return "", false
	}
	if ok {
		e.logger.Debug("resume text served from cache")
	}
	return text, ok
}

func (e *Extractor) store(ctx context.Context, resumeURL, text string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, resumeURL, text); err != nil {
		e.logger.Warn("resume cache write failed", zap.Error(err))
	}
}
