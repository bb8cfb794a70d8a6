package openai

import (
	"context"
	"fmt"
	"io"

	goopenai "github.com/sashabaranov/go-openai"

	"jarvis/internal/infra"
)

// pcmSampleRate is the fixed rate of the API's raw "pcm" output.
const pcmSampleRate = 24000

// PCMPlayer plays 16-bit little-endian mono PCM and returns when playback ends.
type PCMPlayer interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

type SpeechConfig struct {
	Model string
	Voice string
	Speed float64
}

// SpeechClient synthesizes replies in the cloud and plays them locally.
type SpeechClient struct {
	client *goopenai.Client
	player PCMPlayer
	cfg    SpeechConfig
}

func NewSpeechClient(apiKey string, cfg SpeechConfig, player PCMPlayer) *SpeechClient {
	return NewSpeechClientWithURL(apiKey, cfg, player, DefaultBaseURL)
}

func NewSpeechClientWithURL(apiKey string, cfg SpeechConfig, player PCMPlayer, baseURL string) *SpeechClient {
	if cfg.Model == "" {
		cfg.Model = string(goopenai.TTSModel1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(goopenai.VoiceOnyx)
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}
	return &SpeechClient{client: newClient(apiKey, baseURL), player: player, cfg: cfg}
}

func (c *SpeechClient) Speak(ctx context.Context, text string) error {
	pcm, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if err := c.player.Play(ctx, pcm, pcmSampleRate); err != nil {
		return fmt.Errorf("playing speech: %w", err)
	}
	return nil
}

// Synthesize returns raw 24 kHz PCM for text.
func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var pcm []byte

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		resp, err := c.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
			Model:          goopenai.SpeechModel(c.cfg.Model),
			Input:          text,
			Voice:          goopenai.SpeechVoice(c.cfg.Voice),
			ResponseFormat: goopenai.SpeechResponseFormat("pcm"),
			Speed:          c.cfg.Speed,
		})
		if err != nil {
			return classify(fmt.Errorf("speech synthesis: %w", err))
		}
		defer resp.Close()

		pcm, err = io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("reading speech audio: %w", err)
		}
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return pcm, nil
}
