package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short", in: "  hello  ", limit: 10, want: "hello"},
		{name: "cut", in: "abcdef", limit: 3, want: "abc..."},
		{name: "runes", in: "привет", limit: 2, want: "пр..."},
		{name: "zero limit", in: "abc", limit: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.in, tt.limit); got != tt.want {
				t.Fatalf("TruncateForLog(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestConfig(t *testing.T) {
	cfg := Config(true, true)
	if cfg.Encoding != "json" {
		t.Fatalf("expected json encoding, got %q", cfg.Encoding)
	}
	if cfg.Level.Level() != zapcore.DebugLevel {
		t.Fatalf("expected debug level, got %s", cfg.Level.Level())
	}

	cfg = Config(false, false)
	if cfg.Encoding != "console" || cfg.Level.Level() != zapcore.InfoLevel {
		t.Fatalf("unexpected default config: %s %s", cfg.Encoding, cfg.Level.Level())
	}
}
