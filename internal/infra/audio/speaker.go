//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Speaker plays 16-bit mono PCM on the default output device.
type Speaker struct {
	mu     sync.Mutex
	logger *slog.Logger
}

func NewSpeaker(logger *slog.Logger) (*Speaker, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	return &Speaker{logger: logger}, nil
}

// Play blocks until every sample has been handed to the device or ctx is done.
func (s *Speaker) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := PCMToSamples(pcm)
	buf := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(buf), buf)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += len(buf) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := copy(buf, samples[off:])
		clear(buf[n:])
		if err := stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			return fmt.Errorf("writing to output stream: %w", err)
		}
	}

	s.logger.Debug("playback finished", "samples", len(samples), "sampleRate", sampleRate)
	return nil
}

func (s *Speaker) Close() error {
	return portaudio.Terminate()
}
