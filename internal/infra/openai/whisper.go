package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"jarvis/internal/infra"
	"jarvis/internal/infra/audio"
)

type WhisperClient struct {
	client   *goopenai.Client
	language string
}

func NewWhisperClient(apiKey, language string) *WhisperClient {
	return NewWhisperClientWithURL(apiKey, language, DefaultBaseURL)
}

func NewWhisperClientWithURL(apiKey, language, baseURL string) *WhisperClient {
	// Whisper takes ISO-639-1 codes, so "en-US" becomes "en".
	language, _, _ = strings.Cut(language, "-")
	return &WhisperClient{
		client:   newClient(apiKey, baseURL),
		language: language,
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, data []byte) (string, error) {
	var text string
	// Whisper picks its decoder from the file name.
	container := audio.DetectContainer(data)

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
			Model:    goopenai.Whisper1,
			FilePath: "utterance" + container.Extension(),
			Reader:   bytes.NewReader(data),
			Language: c.language,
		})
		if err != nil {
			return classify(fmt.Errorf("whisper transcription: %w", err))
		}
		text = resp.Text
		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	return text, nil
}
