package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means a cloud provider was selected without any API key.
	ErrMissingCredential = errors.New("api key is required")
	// ErrMissingConfig means the local provider was selected without a usable URL.
	ErrMissingConfig = errors.New("local llm url is required")
	// ErrEmptyResponse means the model answered without any text.
	ErrEmptyResponse = errors.New("llm returned no text")
)

// ProviderRequestError wraps a failed call to an LLM backend.
type ProviderRequestError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderRequestError) Error() string {
	msg := fmt.Sprintf("%s request failed", e.Provider)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderRequestError) Unwrap() error {
	return e.Err
}

// ParseError means a model answer carried no decodable analysis object.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse llm response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
