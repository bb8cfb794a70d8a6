//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// Speaker stub when portaudio is not available
type Speaker struct{}

func NewSpeaker(_ *slog.Logger) (*Speaker, error) {
	return nil, fmt.Errorf("speaker not available: rebuild with -tags portaudio")
}

func (s *Speaker) Play(_ context.Context, _ []byte, _ int) error {
	return fmt.Errorf("speaker not available")
}

func (s *Speaker) Close() error {
	return nil
}
