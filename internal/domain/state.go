package domain

type State string

const (
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateTranscribing State = "transcribing"
	StateGenerating   State = "generating"
	StateSpeaking     State = "speaking"
)

// States lists every loop state in cycle order, starting from idle.
var States = []State{
	StateIdle,
	StateListening,
	StateTranscribing,
	StateGenerating,
	StateSpeaking,
}
