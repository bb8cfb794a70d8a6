package domain

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	FailureCaptureTimeout FailureKind = "capture_timeout"
	FailureCapture        FailureKind = "capture"
	FailureTranscription  FailureKind = "transcription"
	FailureGeneration     FailureKind = "generation"
	FailureSynthesis      FailureKind = "synthesis"
)

// FailureKinds lists every kind a StageError can carry.
var FailureKinds = []FailureKind{
	FailureCaptureTimeout,
	FailureCapture,
	FailureTranscription,
	FailureGeneration,
	FailureSynthesis,
}

func ParseFailureKind(s string) (FailureKind, error) {
	for _, k := range FailureKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown failure kind: %q", s)
}

var (
	ErrListenTimeout    = errors.New("no utterance within listen window")
	ErrNoSpeech         = errors.New("no speech recognized")
	ErrEmptyReply       = errors.New("empty reply from generator")
	ErrUnsupportedAudio = errors.New("unsupported audio format")
)

// StageError tags a loop failure with the step that produced it.
type StageError struct {
	Kind FailureKind
	Err  error
}

func NewStageError(kind FailureKind, err error) *StageError {
	return &StageError{Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, if any.
func KindOf(err error) (FailureKind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
