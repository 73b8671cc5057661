package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spigell/job-radar/internal/ai"
)

const (
	Name         = "local"
	DefaultModel = "llama3"

	chatPath     = "/api/chat"
	maxErrorBody = 4096
)

// Client calls an Ollama-compatible chat endpoint.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

type Options struct {
	// URL is the server root (http://localhost:11434) or the full chat endpoint.
	URL        string
	Model      string
	HTTPClient *http.Client
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Format   string    `json:"format,omitempty"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message message `json:"message"`
	Error   string  `json:"error"`
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.URL)
	if raw == "" {
		return nil, ai.ErrMissingConfig
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ai.ErrMissingConfig, raw)
	}
	// The chat endpoint sits at the server root whatever path the user typed.
	u.Path, u.RawPath, u.RawQuery, u.Fragment = chatPath, "", "", ""

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{endpoint: u.String(), model: model, httpClient: httpClient}, nil
}

func (c *Client) Name() string  { return Name }
func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	body := chatRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: req.Prompt}},
	}
	if req.Format == ai.FormatJSON {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &ai.ProviderRequestError{Provider: Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &ai.ProviderRequestError{
			Provider:   Name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ai.ProviderRequestError{Provider: Name, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode chat response: %w", err)}
	}
	if result.Error != "" {
		return "", &ai.ProviderRequestError{Provider: Name, StatusCode: resp.StatusCode, Body: result.Error}
	}

	content := strings.TrimSpace(result.Message.Content)
	if content == "" {
		return "", &ai.ProviderRequestError{Provider: Name, StatusCode: resp.StatusCode, Err: ai.ErrEmptyResponse}
	}

	return content, nil
}
