package application

import (
	"time"

	"jarvis/internal/domain"
)

// Recorder observes the loop. Implementations must be cheap; they run inline.
type Recorder interface {
	ObserveStage(stage domain.State, elapsed time.Duration, err error)
	SetState(state domain.State)
}

type NoopRecorder struct{}

func (NoopRecorder) ObserveStage(_ domain.State, _ time.Duration, _ error) {}
func (NoopRecorder) SetState(_ domain.State)                               {}
