// Package googlespeech transcribes utterances with Google Cloud Speech-to-Text.
package googlespeech

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"jarvis/internal/domain"
	"jarvis/internal/infra/audio"
)

// recognizeClient is the slice of *speech.Client the recognizer uses.
type recognizeClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

type Config struct {
	Language string
	// SampleRate is used when the audio carries no WAV header.
	SampleRate      int
	CredentialsFile string
}

type Recognizer struct {
	client recognizeClient
	cfg    Config
}

// New creates a Cloud Speech client. Without a credentials file it relies on
// Application Default Credentials.
func New(ctx context.Context, cfg Config) (*Recognizer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}
	return newWithClient(client, cfg), nil
}

func newWithClient(client recognizeClient, cfg Config) *Recognizer {
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	return &Recognizer{client: client, cfg: cfg}
}

func (r *Recognizer) Close() error {
	return r.client.Close()
}

func (r *Recognizer) Transcribe(ctx context.Context, data []byte) (string, error) {
	req, err := r.request(data)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("recognizing speech: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}

	if len(parts) == 0 {
		return "", domain.ErrNoSpeech
	}
	return strings.Join(parts, " "), nil
}

// opusRates are the sample rates the API accepts for Opus payloads.
var opusRates = map[int]bool{8000: true, 12000: true, 16000: true, 24000: true, 48000: true}

// request labels data with the encoding of its container. Bytes with no
// recognizable header are taken as raw 16-bit PCM.
func (r *Recognizer) request(data []byte) (*speechpb.RecognizeRequest, error) {
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               r.cfg.Language,
		EnableAutomaticPunctuation: true,
	}
	content := data

	switch container := audio.DetectContainer(data); container {
	case audio.ContainerWAV:
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = int32(audio.WAVSampleRate(data))
		content = audio.StripWAVHeader(data)
	case audio.ContainerUnknown:
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = int32(r.cfg.SampleRate)
	case audio.ContainerFLAC:
		// The rate comes from the FLAC header.
		cfg.Encoding = speechpb.RecognitionConfig_FLAC
	case audio.ContainerOgg:
		cfg.Encoding = speechpb.RecognitionConfig_OGG_OPUS
		cfg.SampleRateHertz = 48000
		if rate := audio.OggOpusSampleRate(data); opusRates[rate] {
			cfg.SampleRateHertz = int32(rate)
		}
	case audio.ContainerWebM:
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		cfg.SampleRateHertz = 48000
	default:
		return nil, fmt.Errorf("%w: %s audio needs the openai transcription provider", domain.ErrUnsupportedAudio, container)
	}

	return &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	}, nil
}
