package application

import "context"

// Synthesizer renders text as speech. Speak returns only after playback has finished.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}
