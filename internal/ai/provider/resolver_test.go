package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/ai/gemini"
	"github.com/spigell/job-radar/internal/ai/ollama"
	"github.com/spigell/job-radar/internal/ai/openai"
	"go.uber.org/zap"
)

type stubReader struct{}

func (stubReader) ReadDocument(ctx context.Context, doc ai.Document, instruction string) (string, error) {
	return "text", nil
}

func TestResolve(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(Defaults{GeminiAPIKey: "server-gemini"}, zap.NewNop())

	tests := []struct {
		name    string
		cfg     ai.LLMConfig
		want    string
		wantErr error
	}{
		{name: "default is gemini with server key", cfg: ai.LLMConfig{}, want: gemini.Name},
		{name: "gemini with request key", cfg: ai.LLMConfig{Provider: ai.ProviderGemini, APIKey: "req"}, want: gemini.Name},
		{name: "openai with request key", cfg: ai.LLMConfig{Provider: ai.ProviderOpenAI, APIKey: "sk-req"}, want: openai.Name},
		{name: "openai without any key", cfg: ai.LLMConfig{Provider: ai.ProviderOpenAI}, wantErr: ai.ErrMissingCredential},
		{name: "local with url", cfg: ai.LLMConfig{Provider: ai.ProviderLocal, URL: "http://localhost:11434"}, want: ollama.Name},
		{name: "local without url", cfg: ai.LLMConfig{Provider: ai.ProviderLocal}, wantErr: ai.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolver.Resolve(context.Background(), tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if got != nil {
					t.Fatalf("expected nil provider on error, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name() != tt.want {
				t.Fatalf("expected provider %q, got %q", tt.want, got.Name())
			}
		})
	}
}

func TestResolveGeminiWithoutKeys(t *testing.T) {
	resolver := NewResolver(Defaults{}, zap.NewNop())

	if _, err := resolver.Resolve(context.Background(), ai.LLMConfig{Provider: ai.ProviderGemini}); !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := resolver.Server(context.Background()); !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential for server provider, got %v", err)
	}
}

func TestDocumentReader(t *testing.T) {
	ctx := context.Background()
	local, err := ollama.New(ollama.Options{URL: "http://localhost:11434"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	withGemini := NewResolver(Defaults{GeminiAPIKey: "server"}, zap.NewNop())
	if _, ok := withGemini.DocumentReader(ctx, local).(*gemini.Client); !ok {
		t.Fatalf("expected server gemini reader for a non-document provider")
	}

	active, err := withGemini.Resolve(ctx, ai.LLMConfig{APIKey: "request"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader := withGemini.DocumentReader(ctx, active); reader != active.(ai.DocumentReader) {
		t.Fatalf("expected the active gemini provider to read documents")
	}

	fallback := NewResolver(Defaults{LocalReader: stubReader{}}, zap.NewNop())
	if _, ok := fallback.DocumentReader(ctx, local).(stubReader); !ok {
		t.Fatalf("expected local fallback reader")
	}

	none := NewResolver(Defaults{}, zap.NewNop())
	if reader := none.DocumentReader(ctx, nil); reader != nil {
		t.Fatalf("expected no reader, got %#v", reader)
	}
}
