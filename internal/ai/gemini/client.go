package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spigell/job-radar/internal/ai"
	"google.golang.org/genai"
)

const (
	Name         = "gemini"
	DefaultModel = "gemini-1.5-flash"
)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client talks to the Gemini API. It scores prompts and reads resume documents.
type Client struct {
	models          modelsAPI
	model           string
	extractionModel string
}

type Options struct {
	APIKey          string
	Model           string
	ExtractionModel string
	HTTPClient      *http.Client
}

func New(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ai.ErrMissingCredential)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(client.Models, opts.Model, opts.ExtractionModel), nil
}

func newClient(models modelsAPI, model, extractionModel string) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	if extractionModel = strings.TrimSpace(extractionModel); extractionModel == "" {
		extractionModel = model
	}

	return &Client{models: models, model: model, extractionModel: extractionModel}
}

func (c *Client) Name() string  { return Name }
func (c *Client) Model() string { return c.model }

// Complete returns the first text segment of the first candidate.
func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.Format == ai.FormatJSON {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", requestError(err)
	}

	text := firstText(resp)
	if text == "" {
		return "", &ai.ProviderRequestError{Provider: Name, Err: ai.ErrEmptyResponse}
	}

	return text, nil
}

// ReadDocument sends the document inline together with the instruction and
// returns the plain text the model extracted from it.
func (c *Client) ReadDocument(ctx context.Context, doc ai.Document, instruction string) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: instruction},
			{InlineData: &genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data}},
		},
	}}

	resp, err := c.models.GenerateContent(ctx, c.extractionModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
	})
	if err != nil {
		return "", requestError(err)
	}

	return firstText(resp), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if text := strings.TrimSpace(part.Text); text != "" {
				return text
			}
		}
		return ""
	}
	return ""
}

func requestError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ai.ProviderRequestError{
			Provider:   Name,
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
			Err:        err,
		}
	}
	return &ai.ProviderRequestError{Provider: Name, Err: err}
}
