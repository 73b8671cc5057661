package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("https://files.example/resume.pdf")
	b := Key("https://files.example/resume.pdf")
	c := Key("https://files.example/other.pdf")

	if a != b {
		t.Fatalf("expected stable key, got %q and %q", a, b)
	}
	if a == c {
		t.Fatalf("expected different urls to map to different keys")
	}
	if !strings.HasPrefix(a, keyPrefix) || strings.Contains(a, "files.example") {
		t.Fatalf("unexpected key %q", a)
	}
}

func TestResumeCacheRoundTrip(t *testing.T) {
	url := os.Getenv("JOB_RADAR_TEST_REDIS_URL")
	if url == "" {
		t.Skip("JOB_RADAR_TEST_REDIS_URL is not set")
	}

	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	cache := NewResumeCache(rdb, time.Minute)
	resumeURL := "https://files.example/" + t.Name()

	if _, ok, err := cache.Get(ctx, resumeURL); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Set(ctx, resumeURL, "Jane Doe"); err != nil {
		t.Fatalf("set: %v", err)
	}
	text, ok, err := cache.Get(ctx, resumeURL)
	if err != nil || !ok || text != "Jane Doe" {
		t.Fatalf("expected hit, got %q ok=%v err=%v", text, ok, err)
	}
}
