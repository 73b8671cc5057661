// Package provider turns a per-request LLMConfig into a concrete ai.Provider.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/ai/gemini"
	"github.com/spigell/job-radar/internal/ai/ollama"
	"github.com/spigell/job-radar/internal/ai/openai"
	"go.uber.org/zap"
)

// Defaults are the server-side settings used when a request leaves them out.
type Defaults struct {
	GeminiAPIKey          string
	GeminiModel           string
	GeminiExtractionModel string
	OpenAIAPIKey          string
	OpenAIModel           string
	OpenAIBaseURL         string
	OllamaModel           string
	HTTPClient            *http.Client
	// LocalReader reads resumes when no Gemini key is available for extraction.
	LocalReader ai.DocumentReader
}

type Resolver struct {
	defaults Defaults
	logger   *zap.Logger
}

func NewResolver(defaults Defaults, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{defaults: defaults, logger: logger}
}

// Resolve builds the provider selected by cfg. A request key wins over the server key.
func (r *Resolver) Resolve(ctx context.Context, cfg ai.LLMConfig) (ai.Provider, error) {
	kind, err := ai.ParseProviderKind(string(cfg.Provider))
	if err != nil {
		return nil, err
	}

	switch kind {
	case ai.ProviderGemini:
		client, err := r.gemini(ctx, firstNonEmpty(cfg.APIKey, r.defaults.GeminiAPIKey))
		if err != nil {
			return nil, err
		}
		return client, nil
	case ai.ProviderOpenAI:
		client, err := openai.New(openai.Options{
			APIKey:     firstNonEmpty(cfg.APIKey, r.defaults.OpenAIAPIKey),
			Model:      r.defaults.OpenAIModel,
			BaseURL:    r.defaults.OpenAIBaseURL,
			HTTPClient: r.defaults.HTTPClient,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case ai.ProviderLocal:
		client, err := ollama.New(ollama.Options{
			URL:        cfg.URL,
			Model:      r.defaults.OllamaModel,
			HTTPClient: r.defaults.HTTPClient,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", kind)
	}
}

// Server returns the provider used by server-side jobs such as career page discovery.
func (r *Resolver) Server(ctx context.Context) (ai.Provider, error) {
	client, err := r.gemini(ctx, r.defaults.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// DocumentReader picks who reads the resume for a run. The active provider is used
// when it can read documents, then Gemini with the server key, then the local reader.
// It returns nil when nobody can.
func (r *Resolver) DocumentReader(ctx context.Context, active ai.Provider) ai.DocumentReader {
	if reader, ok := active.(ai.DocumentReader); ok {
		return reader
	}

	if strings.TrimSpace(r.defaults.GeminiAPIKey) != "" {
		client, err := r.gemini(ctx, r.defaults.GeminiAPIKey)
		if err == nil {
			return client
		}
		r.logger.Warn("server-side gemini reader unavailable", zap.Error(err))
	}

	if r.defaults.LocalReader != nil {
		return r.defaults.LocalReader
	}

	return nil
}

func (r *Resolver) gemini(ctx context.Context, apiKey string) (*gemini.Client, error) {
	return gemini.New(ctx, gemini.Options{
		APIKey:          apiKey,
		Model:           r.defaults.GeminiModel,
		ExtractionModel: r.defaults.GeminiExtractionModel,
		HTTPClient:      r.defaults.HTTPClient,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
