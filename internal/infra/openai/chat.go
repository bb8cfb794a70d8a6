package openai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"jarvis/internal/domain"
	"jarvis/internal/infra"
)

type ChatConfig struct {
	Model             string
	SystemInstruction string
	Temperature       float32
	MaxTokens         int
}

// ChatClient generates replies with the chat completions endpoint.
// Each call is independent; no history is kept between utterances.
type ChatClient struct {
	client *goopenai.Client
	cfg    ChatConfig
}

func NewChatClient(apiKey string, cfg ChatConfig) *ChatClient {
	return NewChatClientWithURL(apiKey, cfg, DefaultBaseURL)
}

func NewChatClientWithURL(apiKey string, cfg ChatConfig, baseURL string) *ChatClient {
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT4oMini
	}
	return &ChatClient{client: newClient(apiKey, baseURL), cfg: cfg}
}

func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	var messages []goopenai.ChatCompletionMessage
	if c.cfg.SystemInstruction != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: c.cfg.SystemInstruction,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var reply string
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify(fmt.Errorf("chat completion: %w", err))
		}
		if len(resp.Choices) == 0 {
			return infra.Permanent(domain.ErrEmptyReply)
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	return reply, nil
}
