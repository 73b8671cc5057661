package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spigell/job-radar/internal/ai"
)

const (
	Name         = "openai"
	DefaultModel = "gpt-4o-mini"
)

type Client struct {
	client openai.Client
	model  string
}

type Options struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, mostly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

func New(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ai.ErrMissingCredential)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		requestOpts = append(requestOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Client{client: openai.NewClient(requestOpts...), model: model}, nil
}

func (c *Client) Name() string  { return Name }
func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Model: openai.ChatModel(c.model),
	}

	switch {
	case req.Schema != nil:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
				},
			},
		}
	case req.Format == ai.FormatJSON:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ai.ProviderRequestError{
				Provider:   Name,
				StatusCode: apiErr.StatusCode,
				Body:       apiErr.Message,
				Err:        err,
			}
		}
		return "", &ai.ProviderRequestError{Provider: Name, Err: err}
	}

	if len(completion.Choices) == 0 {
		return "", &ai.ProviderRequestError{Provider: Name, Err: ai.ErrEmptyResponse}
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", &ai.ProviderRequestError{Provider: Name, Err: ai.ErrEmptyResponse}
	}

	return content, nil
}
