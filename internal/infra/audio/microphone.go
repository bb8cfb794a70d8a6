//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"jarvis/internal/domain"
)

const framesPerBuffer = 1024

type MicrophoneSource struct {
	stream   *portaudio.Stream
	frame    []int16
	endpoint EndpointConfig
	detector *Endpointer
	logger   *slog.Logger
}

func NewMicrophoneSource(cfg EndpointConfig, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		endpoint: cfg,
		detector: NewEndpointer(cfg),
		logger:   logger,
		frame:    make([]int16, framesPerBuffer),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.endpoint.SampleRate), len(m.frame), m.frame)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}
	m.stream = stream

	m.logger.Info("microphone started", "sampleRate", m.endpoint.SampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	portaudio.Terminate()
	return nil
}

// NextUtterance reads frames until the endpointer closes an utterance.
// The stream keeps running between calls, so audio captured while the loop
// is busy elsewhere is flushed as overflow rather than queued.
func (m *MicrophoneSource) NextUtterance(ctx context.Context) (*domain.Utterance, error) {
	ep := m.detector
	ep.Reset()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil && err != portaudio.InputOverflowed {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		if ep.Push(m.frame) {
			break
		}
	}

	samples := ep.Samples()
	m.logger.Debug("utterance captured", "samples", len(samples))

	return &domain.Utterance{
		Audio:      EncodeWAV(samples, m.endpoint.SampleRate),
		CapturedAt: time.Now(),
	}, nil
}
