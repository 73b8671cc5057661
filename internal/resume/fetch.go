package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultMaxBytes caps the size of a downloaded resume.
const DefaultMaxBytes = 10 << 20

var errTooLarge = errors.New("resume exceeds size limit")

// Fetcher downloads the raw bytes behind a resume URL.
type Fetcher interface {
	Fetch(ctx context.Context, resumeURL string) ([]byte, error)
}

type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(client *http.Client, maxBytes int64) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{client: client, maxBytes: maxBytes}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, resumeURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resumeURL, nil)
	if err != nil {
		return nil, &FetchError{URL: resumeURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: resumeURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{URL: resumeURL, StatusCode: resp.StatusCode}
	}

	return readLimited(resp.Body, resumeURL, f.maxBytes)
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher reads s3://bucket/key resume URLs.
type S3Fetcher struct {
	client   objectGetter
	maxBytes int64
}

func NewS3Fetcher(cfg aws.Config, maxBytes int64, optFns ...func(*s3.Options)) *S3Fetcher {
	return newS3Fetcher(s3.NewFromConfig(cfg, optFns...), maxBytes)
}

func newS3Fetcher(client objectGetter, maxBytes int64) *S3Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &S3Fetcher{client: client, maxBytes: maxBytes}
}

func (f *S3Fetcher) Fetch(ctx context.Context, resumeURL string) ([]byte, error) {
	u, err := url.Parse(resumeURL)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return nil, &FetchError{URL: resumeURL, Err: fmt.Errorf("invalid s3 url")}
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return nil, &FetchError{URL: resumeURL, Err: fmt.Errorf("missing object key")}
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, &FetchError{URL: resumeURL, StatusCode: http.StatusNotFound, Err: err}
		}
		return nil, &FetchError{URL: resumeURL, Err: err}
	}
	defer out.Body.Close()

	return readLimited(out.Body, resumeURL, f.maxBytes)
}

// SchemeFetcher routes a URL to the fetcher registered for its scheme.
type SchemeFetcher map[string]Fetcher

func (m SchemeFetcher) Fetch(ctx context.Context, resumeURL string) ([]byte, error) {
	u, err := url.Parse(resumeURL)
	if err != nil {
		return nil, &FetchError{URL: resumeURL, Err: err}
	}

	fetcher, ok := m[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, &FetchError{URL: resumeURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	return fetcher.Fetch(ctx, resumeURL)
}

func readLimited(r io.Reader, resumeURL string, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: resumeURL, Err: err}
	}
	if int64(len(data)) > maxBytes {
		return nil, &FetchError{URL: resumeURL, Err: errTooLarge}
	}
	return data, nil
}
