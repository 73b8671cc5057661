// Package cache keeps extracted resume text in Redis so repeated runs for the
// same resume skip the document-reading LLM call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "job-radar:resume:"
	DefaultTTL = 24 * time.Hour
)

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

type ResumeCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewResumeCache(rdb redis.Cmdable, ttl time.Duration) *ResumeCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResumeCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached text for resumeURL. A miss is not an error.
func (c *ResumeCache) Get(ctx context.Context, resumeURL string) (string, bool, error) {
	text, err := c.rdb.Get(ctx, Key(resumeURL)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached resume: %w", err)
	}
	return text, true, nil
}

func (c *ResumeCache) Set(ctx context.Context, resumeURL, text string) error {
	if err := c.rdb.Set(ctx, Key(resumeURL), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache resume: %w", err)
	}
	return nil
}

// Key maps a resume URL to its cache key without storing the URL itself.
func Key(resumeURL string) string {
	sum := sha256.Sum256([]byte(resumeURL))
	return keyPrefix + hex.EncodeToString(sum[:])
}
