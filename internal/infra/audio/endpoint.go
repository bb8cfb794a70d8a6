package audio

import "time"

type EndpointConfig struct {
	SampleRate int
	// SilenceThreshold is the peak amplitude below which a frame counts as silence.
	SilenceThreshold int16
	// SilenceDuration of trailing silence ends an utterance.
	SilenceDuration time.Duration
	// MaxPhrase caps an utterance once speech has started.
	MaxPhrase time.Duration
	// PreRoll keeps audio captured just before speech was detected.
	PreRoll time.Duration
}

func DefaultEndpointConfig(sampleRate int) EndpointConfig {
	return EndpointConfig{
		SampleRate:       sampleRate,
		SilenceThreshold: 500,
		SilenceDuration:  800 * time.Millisecond,
		MaxPhrase:        10 * time.Second,
		PreRoll:          300 * time.Millisecond,
	}
}

// Endpointer decides where an utterance ends from a stream of PCM frames.
// It waits for speech, then closes the utterance after enough silence.
type Endpointer struct {
	cfg            EndpointConfig
	samples        []int16
	heardSpeech    bool
	silentSamples  int
	silenceSamples int
	maxSamples     int
	preRollSamples int
}

func NewEndpointer(cfg EndpointConfig) *Endpointer {
	return &Endpointer{
		cfg:            cfg,
		silenceSamples: durationToSamples(cfg.SilenceDuration, cfg.SampleRate),
		maxSamples:     durationToSamples(cfg.MaxPhrase, cfg.SampleRate),
		preRollSamples: durationToSamples(cfg.PreRoll, cfg.SampleRate),
	}
}

// Push feeds one frame and reports whether the utterance is complete.
func (e *Endpointer) Push(frame []int16) bool {
	silent := isSilent(frame, e.cfg.SilenceThreshold)

	if !e.heardSpeech {
		if silent {
			e.samples = append(e.samples, frame...)
			if over := len(e.samples) - e.preRollSamples; over > 0 {
				e.samples = append(e.samples[:0], e.samples[over:]...)
			}
			return false
		}
		e.heardSpeech = true
	}

	e.samples = append(e.samples, frame...)

	if silent {
		e.silentSamples += len(frame)
	} else {
		e.silentSamples = 0
	}

	if e.silenceSamples > 0 && e.silentSamples >= e.silenceSamples {
		return true
	}
	return e.maxSamples > 0 && len(e.samples) >= e.maxSamples
}

func (e *Endpointer) Samples() []int16 {
	return e.samples
}

// Reset readies the endpointer for the next utterance, keeping its buffer.
func (e *Endpointer) Reset() {
	e.samples = e.samples[:0]
	e.heardSpeech = false
	e.silentSamples = 0
}

func isSilent(frame []int16, threshold int16) bool {
	for _, sample := range frame {
		if sample > threshold || sample < -threshold {
			return false
		}
	}
	return true
}

func durationToSamples(d time.Duration, sampleRate int) int {
	return int(d.Seconds() * float64(sampleRate))
}
