package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"jarvis/internal/domain"
	"jarvis/internal/infra"
)

const DefaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey            string
	Model             string
	SystemInstruction string
	Temperature       float32
	MaxOutputTokens   int32
	// BaseURL overrides the Gemini API endpoint; empty uses the SDK default.
	BaseURL string
}

// Client generates replies with the Gemini API. Each call sends only the
// transcript; no chat history is kept.
type Client struct {
	models *genai.Models
	cfg    Config
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Client{models: client.Models, cfg: cfg}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var reply string

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), c.generateConfig())
		if err != nil {
			return classify(fmt.Errorf("gemini generate: %w", err))
		}
		if len(resp.Candidates) == 0 {
			if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
				return infra.Permanent(fmt.Errorf("gemini blocked prompt: %s", fb.BlockReason))
			}
			return infra.Permanent(domain.ErrEmptyReply)
		}
		reply = strings.TrimSpace(resp.Text())
		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	return reply, nil
}

func (c *Client) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if c.cfg.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(c.cfg.SystemInstruction, genai.RoleUser)
	}
	if c.cfg.Temperature > 0 {
		cfg.Temperature = genai.Ptr(c.cfg.Temperature)
	}
	if c.cfg.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = c.cfg.MaxOutputTokens
	}
	return cfg
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && !infra.IsRetryableHTTPStatus(apiErr.Code) {
		return infra.Permanent(err)
	}
	return err
}
