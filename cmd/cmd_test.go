package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/analysis"
	"github.com/spigell/job-radar/internal/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://radar@localhost/radar")

	config, err := getConfig()
	if err != nil {
		t.Fatalf("getConfig: %v", err)
	}

	if config.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", config.Server.Addr)
	}
	if config.AI.RequestTimeout != 45*time.Second {
		t.Fatalf("unexpected request timeout %s", config.AI.RequestTimeout)
	}
	if config.Analysis.JobLimit != 50 || config.Analysis.Concurrency != 10 {
		t.Fatalf("unexpected analysis config %+v", config.Analysis)
	}
	if config.AI.Gemini.Model != "gemini-1.5-flash" || config.AI.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected models %+v %+v", config.AI.Gemini, config.AI.OpenAI)
	}
	if config.Database.URL != "postgres://radar@localhost/radar" {
		t.Fatalf("DATABASE_URL not bound, got %q", config.Database.URL)
	}
}

func TestProviderDefaultsReadsKeyFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "gemini.key")
	if err := os.WriteFile(keyFile, []byte("file-key\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	config := &Config{
		AI: &AIConfig{
			Gemini: &GeminiConfig{APIKey: "inline-key", APIKeyFile: keyFile},
			OpenAI: &OpenAIConfig{},
			Ollama: &OllamaConfig{},
		},
		Resume: &ResumeConfig{LocalFallback: true},
	}

	defaults, err := providerDefaults(config)
	if err != nil {
		t.Fatalf("providerDefaults: %v", err)
	}
	if defaults.GeminiAPIKey != "file-key" {
		t.Fatalf("expected key from file, got %q", defaults.GeminiAPIKey)
	}
	if defaults.OpenAIAPIKey != "" {
		t.Fatalf("expected no openai key, got %q", defaults.OpenAIAPIKey)
	}
	if defaults.LocalReader == nil {
		t.Fatalf("expected local reader when fallback is enabled")
	}
}

func TestLoadAnalysisRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `profile:
  preferred-title: Backend Engineer
  skills: Go, PostgreSQL
  remote-preference: Remote
  resume-url: https://files.example/cv.pdf
llm:
  provider: openai
  api-key: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	flags := analyzeCmd.Flags()
	for name, value := range map[string]string{"profile": path, "api-key": "from-flag"} {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	t.Cleanup(func() {
		flags.Set("profile", "profile.yaml")
		flags.Set("api-key", "")
	})

	req, err := loadAnalysisRequest(analyzeCmd)
	if err != nil {
		t.Fatalf("loadAnalysisRequest: %v", err)
	}

	if req.Profile.PreferredTitle != "Backend Engineer" || req.Profile.ResumeURL != "https://files.example/cv.pdf" {
		t.Fatalf("unexpected profile %+v", req.Profile)
	}
	if req.Profile.RemotePreference != analysis.RemoteOnly {
		t.Fatalf("unexpected remote preference %q", req.Profile.RemotePreference)
	}
	if req.LLMConfig.Provider != ai.ProviderOpenAI || req.LLMConfig.APIKey != "from-flag" {
		t.Fatalf("unexpected llm config %+v", req.LLMConfig)
	}
}

func TestHandleAction(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	result := &analysis.Result{Jobs: []storage.Job{{
		Title:    "Go Engineer",
		JobURL:   "https://acme.example/1",
		Company:  &storage.CompanyRef{Name: "Acme"},
		Analysis: &ai.Analysis{MatchScore: 91, IsMatch: true},
	}}}

	if err := handleAction(PromptShowReport, log, result); err != nil {
		t.Fatalf("show report: %v", err)
	}
	if logs.FilterField(zap.Int("jobs count", 1)).Len() != 1 {
		t.Fatalf("expected report log entry, got %v", logs.All())
	}

	if err := handleAction(PromptQuit, log, result); !errors.Is(err, errExit) {
		t.Fatalf("expected errExit, got %v", err)
	}
	if err := handleAction("unknown", log, result); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
