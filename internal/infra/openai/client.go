// Package openai adapts the OpenAI API to the assistant's transcription,
// generation and synthesis ports.
package openai

import (
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"jarvis/internal/infra"
)

const DefaultBaseURL = "https://api.openai.com/v1"

func newClient(apiKey, baseURL string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return goopenai.NewClientWithConfig(cfg)
}

// classify marks client errors that retrying cannot fix.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && !infra.IsRetryableHTTPStatus(apiErr.HTTPStatusCode) {
		return infra.Permanent(err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && !infra.IsRetryableHTTPStatus(reqErr.HTTPStatusCode) {
		return infra.Permanent(err)
	}
	return err
}
