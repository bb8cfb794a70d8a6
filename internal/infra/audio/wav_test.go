package audio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/infra/audio"
)

func TestEncodeWAV_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}

	wav := audio.EncodeWAV(samples, 16000)

	require.Len(t, wav, 44+len(samples)*2)
	assert.True(t, audio.IsWAV(wav))
	assert.Equal(t, 16000, audio.WAVSampleRate(wav))
	assert.Equal(t, samples, audio.PCMToSamples(audio.StripWAVHeader(wav)))
}

func TestStripWAVHeader_RawPCMUnchanged(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	assert.Equal(t, raw, audio.StripWAVHeader(raw))
	assert.Equal(t, 0, audio.WAVSampleRate(raw))
}

func TestPCMToSamples_DropsOddByte(t *testing.T) {
	assert.Equal(t, []int16{0x0201}, audio.PCMToSamples([]byte{0x01, 0x02, 0x03}))
}

func frame(n int, value int16) []int16 {
	f := make([]int16, n)
	for i := range f {
		f[i] = value
	}
	return f
}

func testEndpointConfig() audio.EndpointConfig {
	return audio.EndpointConfig{
		SampleRate:       1000,
		SilenceThreshold: 100,
		SilenceDuration:  200 * time.Millisecond,
		MaxPhrase:        2 * time.Second,
		PreRoll:          100 * time.Millisecond,
	}
}

func TestEndpointer_WaitsForSpeech(t *testing.T) {
	ep := audio.NewEndpointer(testEndpointConfig())

	for i := 0; i < 20; i++ {
		assert.False(t, ep.Push(frame(100, 10)), "silence alone must not end an utterance")
	}
	assert.Len(t, ep.Samples(), 100, "only the pre-roll is kept before speech")
}

func TestEndpointer_EndsAfterTrailingSilence(t *testing.T) {
	ep := audio.NewEndpointer(testEndpointConfig())

	assert.False(t, ep.Push(frame(100, 10)))
	assert.False(t, ep.Push(frame(100, 2000)))
	assert.False(t, ep.Push(frame(100, 2000)))
	assert.False(t, ep.Push(frame(100, 0)))
	assert.True(t, ep.Push(frame(100, 0)))

	assert.Len(t, ep.Samples(), 500)
}

func TestEndpointer_SpeechResetsSilence(t *testing.T) {
	ep := audio.NewEndpointer(testEndpointConfig())

	ep.Push(frame(100, 2000))
	assert.False(t, ep.Push(frame(100, 0)))
	assert.False(t, ep.Push(frame(100, -2000)))
	assert.False(t, ep.Push(frame(100, 0)))
	assert.True(t, ep.Push(frame(100, 0)))
}

func TestEndpointer_MaxPhrase(t *testing.T) {
	ep := audio.NewEndpointer(testEndpointConfig())

	done := false
	pushes := 0
	for !done && pushes < 100 {
		done = ep.Push(frame(100, 5000))
		pushes++
	}

	assert.True(t, done)
	assert.Equal(t, 20, pushes)
}

func TestEndpointer_Reset(t *testing.T) {
	ep := audio.NewEndpointer(testEndpointConfig())
	ep.Push(frame(100, 5000))
	ep.Reset()
	assert.Empty(t, ep.Samples())

	// Trailing silence no longer ends anything: the endpointer waits for speech again.
	assert.False(t, ep.Push(frame(100, 0)))
	assert.False(t, ep.Push(frame(100, 0)))
	assert.False(t, ep.Push(frame(100, 0)))
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := audio.NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}
