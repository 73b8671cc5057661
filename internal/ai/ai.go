// Package ai holds the provider-neutral pieces of LLM job scoring: the request
// configuration, the Provider capability interfaces, the analysis result and
// its lenient parser.
package ai

import (
	"context"
	"fmt"
	"strings"
)

// ProviderKind names one member of the closed set of supported LLM backends.
type ProviderKind string

const (
	ProviderGemini ProviderKind = "gemini"
	ProviderOpenAI ProviderKind = "openai"
	ProviderLocal  ProviderKind = "local"
)

// ParseProviderKind normalizes a client-supplied provider name. An empty name selects Gemini.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch kind := ProviderKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case "":
		return ProviderGemini, nil
	case ProviderGemini, ProviderOpenAI, ProviderLocal:
		return kind, nil
	case "ollama":
		return ProviderLocal, nil
	default:
		return "", fmt.Errorf("unsupported llm provider %q", s)
	}
}

// LLMConfig is supplied per request and never persisted.
type LLMConfig struct {
	Provider ProviderKind `json:"provider" mapstructure:"provider"`
	APIKey   string       `json:"apiKey,omitempty" mapstructure:"api-key"`
	URL      string       `json:"url,omitempty" mapstructure:"url"`
}

// Format tells a provider what shape of answer is expected.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Request is one prompt sent to a provider.
type Request struct {
	Prompt string
	Format Format
	// Schema, when set, asks providers that support it for strictly structured output.
	Schema     any
	SchemaName string
}

// Provider sends a single prompt to a model and returns its raw text answer.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Document is a binary file handed to a model that can read it.
type Document struct {
	MIMEType string
	Data     []byte
}

// DocumentReader is implemented by providers able to turn a document into plain text.
// An empty string with a nil error means the model produced no text.
type DocumentReader interface {
	ReadDocument(ctx context.Context, doc Document, instruction string) (string, error)
}
