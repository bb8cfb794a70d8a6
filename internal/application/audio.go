package application

import (
	"context"

	"jarvis/internal/domain"
)

// AudioSource yields one utterance per call. NextUtterance blocks until the
// source detects an utterance boundary or ctx is done.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextUtterance(ctx context.Context) (*domain.Utterance, error)
	Name() string
}
