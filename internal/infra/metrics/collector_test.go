package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/application"
	"jarvis/internal/domain"
)

var _ application.Recorder = (*Collector)(nil)

func TestCollector_ObserveStage(t *testing.T) {
	c := NewCollector()

	c.ObserveStage(domain.StateTranscribing, 200*time.Millisecond, nil)
	c.ObserveStage(domain.StateTranscribing, time.Second, errors.New("boom"))
	c.ObserveStage(domain.StateListening, 5*time.Second, domain.ErrListenTimeout)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.stages.WithLabelValues("transcribing", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stages.WithLabelValues("transcribing", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stages.WithLabelValues("listening", "timeout")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
}

func TestCollector_SetState(t *testing.T) {
	c := NewCollector()

	c.SetState(domain.StateSpeaking)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.state.WithLabelValues("speaking")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.state.WithLabelValues("idle")))

	c.SetState(domain.StateIdle)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.state.WithLabelValues("speaking")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.state.WithLabelValues("idle")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveStage(domain.StateGenerating, time.Second, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `jarvis_stage_total{outcome="ok",stage="generating"} 1`)
	assert.Contains(t, string(body), "jarvis_stage_duration_seconds_bucket")
}

func TestNewCollector_Independent(t *testing.T) {
	// Separate registries must not panic on duplicate registration.
	assert.NotPanics(t, func() {
		NewCollector()
		NewCollector()
	})
}
