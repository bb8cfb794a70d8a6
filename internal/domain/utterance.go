package domain

import "time"

// Utterance is one bounded span of captured audio treated as a single input event.
// Text sources fill Text instead of Audio and skip transcription.
type Utterance struct {
	ID         string
	Audio      []byte
	Text       string
	CapturedAt time.Time
}

// IsText reports whether the utterance arrived already transcribed.
func (u *Utterance) IsText() bool {
	return u.Text != "" && len(u.Audio) == 0
}

// IsEmpty reports whether the source produced nothing to work with.
func (u *Utterance) IsEmpty() bool {
	return u == nil || (u.Text == "" && len(u.Audio) == 0)
}

// Exchange records the outcome of one loop iteration.
type Exchange struct {
	UtteranceID string
	Transcript  string
	Reply       string
	Failure     *StageError
}

func (e Exchange) OK() bool {
	return e.Failure == nil
}
