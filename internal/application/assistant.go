package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"jarvis/internal/domain"
)

const (
	DefaultGreeting        = "Systems online. How can I help, sir?"
	DefaultFallbackMessage = "Sorry, I didn't catch that."
)

type Dependencies struct {
	Audio       AudioSource
	STT         SpeechToText
	Generator   Generator
	Synthesizer Synthesizer
	Notifier    Notifier
	Recorder    Recorder
	Console     *Console
	Logger      *slog.Logger
}

type Options struct {
	// Greeting is spoken once when Run starts. Empty disables it.
	Greeting        string
	FallbackMessage string
	// ListenTimeout bounds a single capture. Zero leaves it to the source.
	ListenTimeout time.Duration
	Policies      Policies
}

type Assistant struct {
	audio    AudioSource
	stt      SpeechToText
	gen      Generator
	tts      Synthesizer
	notifier Notifier
	recorder Recorder
	console  *Console
	logger   *slog.Logger
	opts     Options

	state    atomic.Value
	failures map[domain.FailureKind]int
}

func NewAssistant(deps Dependencies, opts Options) *Assistant {
	if deps.STT == nil {
		deps.STT = &NoopSTT{}
	}
	if deps.Notifier == nil {
		deps.Notifier = &NoopNotifier{}
	}
	if deps.Recorder == nil {
		deps.Recorder = NoopRecorder{}
	}
	if deps.Console == nil {
		deps.Console = NewConsole(io.Discard, "")
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.FallbackMessage == "" {
		opts.FallbackMessage = DefaultFallbackMessage
	}
	opts.Policies = DefaultPolicies().Merge(opts.Policies)

	a := &Assistant{
		audio:    deps.Audio,
		stt:      deps.STT,
		gen:      deps.Generator,
		tts:      deps.Synthesizer,
		notifier: deps.Notifier,
		recorder: deps.Recorder,
		console:  deps.Console,
		logger:   deps.Logger,
		opts:     opts,
		failures: make(map[domain.FailureKind]int),
	}
	a.state.Store(domain.StateIdle)
	return a
}

func (a *Assistant) State() domain.State {
	return a.state.Load().(domain.State)
}

// Run drives the listen, transcribe, generate, speak cycle until ctx is done
// or a recovery policy aborts.
func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer a.audio.Stop()
	defer a.setState(domain.StateIdle)

	if se := a.greet(ctx); se != nil {
		if err := a.handleFailure(ctx, se); err != nil {
			return err
		}
	}

	a.logger.Info("assistant ready, listening for utterances")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ex := a.Step(ctx)
		if ex.OK() {
			clear(a.failures)
			continue
		}

		// A step interrupted by shutdown is not a failure worth reporting.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := a.handleFailure(ctx, ex.Failure); err != nil {
			return err
		}
	}
}

// Step runs exactly one iteration of the loop and reports what happened.
// It never applies recovery policies; Run does.
func (a *Assistant) Step(ctx context.Context) domain.Exchange {
	utt, se := a.listen(ctx)
	if se != nil {
		return domain.Exchange{Failure: se}
	}

	ex := domain.Exchange{UtteranceID: utt.ID}
	logger := a.logger.With("utterance_id", utt.ID)

	transcript, se := a.transcribe(ctx, utt, logger)
	if se != nil {
		ex.Failure = se
		return ex
	}
	ex.Transcript = transcript

	reply, se := a.generate(ctx, transcript, logger)
	if se != nil {
		ex.Failure = se
		return ex
	}
	ex.Reply = reply

	if se := a.speak(ctx, reply); se != nil {
		ex.Failure = se
	}
	return ex
}

func (a *Assistant) listen(ctx context.Context) (*domain.Utterance, *domain.StageError) {
	a.setState(domain.StateListening)
	a.console.Listening()

	listenCtx := ctx
	if a.opts.ListenTimeout > 0 {
		var cancel context.CancelFunc
		listenCtx, cancel = context.WithTimeout(ctx, a.opts.ListenTimeout)
		defer cancel()
	}

	start := time.Now()
	utt, err := a.audio.NextUtterance(listenCtx)
	if err == nil && utt.IsEmpty() {
		err = domain.ErrListenTimeout
	}
	a.recorder.ObserveStage(domain.StateListening, time.Since(start), err)

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrListenTimeout):
			return nil, domain.NewStageError(domain.FailureCaptureTimeout, err)
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return nil, domain.NewStageError(domain.FailureCaptureTimeout, fmt.Errorf("%w: %w", domain.ErrListenTimeout, err))
		default:
			return nil, domain.NewStageError(domain.FailureCapture, fmt.Errorf("getting utterance: %w", err))
		}
	}

	if utt.ID == "" {
		utt.ID = uuid.NewString()
	}
	if utt.CapturedAt.IsZero() {
		utt.CapturedAt = time.Now()
	}
	return utt, nil
}

func (a *Assistant) transcribe(ctx context.Context, utt *domain.Utterance, logger *slog.Logger) (string, *domain.StageError) {
	if utt.IsText() {
		logger.Info("received text utterance", "text", utt.Text)
		a.console.User(utt.Text)
		return utt.Text, nil
	}

	a.setState(domain.StateTranscribing)
	logger.Info("received audio", "bytes", len(utt.Audio))

	start := time.Now()
	text, err := a.stt.Transcribe(ctx, utt.Audio)
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.ErrNoSpeech
	}
	a.recorder.ObserveStage(domain.StateTranscribing, time.Since(start), err)
	if err != nil {
		return "", domain.NewStageError(domain.FailureTranscription, fmt.Errorf("transcribing: %w", err))
	}

	logger.Info("transcribed", "text", text)
	a.console.User(text)
	return text, nil
}

func (a *Assistant) generate(ctx context.Context, transcript string, logger *slog.Logger) (string, *domain.StageError) {
	a.setState(domain.StateGenerating)

	start := time.Now()
	reply, err := a.gen.Generate(ctx, transcript)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = domain.ErrEmptyReply
	}
	a.recorder.ObserveStage(domain.StateGenerating, time.Since(start), err)
	if err != nil {
		return "", domain.NewStageError(domain.FailureGeneration, fmt.Errorf("generating: %w", err))
	}

	logger.Info("generated reply", "chars", len(reply))
	a.console.Assistant(reply)
	return reply, nil
}

func (a *Assistant) speak(ctx context.Context, text string) *domain.StageError {
	a.setState(domain.StateSpeaking)

	start := time.Now()
	err := a.tts.Speak(ctx, text)
	a.recorder.ObserveStage(domain.StateSpeaking, time.Since(start), err)
	if err != nil {
		return domain.NewStageError(domain.FailureSynthesis, fmt.Errorf("speaking: %w", err))
	}
	return nil
}

func (a *Assistant) greet(ctx context.Context) *domain.StageError {
	if a.opts.Greeting == "" {
		return nil
	}
	a.console.Assistant(a.opts.Greeting)
	return a.speak(ctx, a.opts.Greeting)
}

// handleFailure applies the policy for se. A non-nil return ends Run.
func (a *Assistant) handleFailure(ctx context.Context, se *domain.StageError) error {
	policy := a.opts.Policies.For(se.Kind)
	a.failures[se.Kind]++
	count := a.failures[se.Kind]

	level := slog.LevelWarn
	if se.Kind == domain.FailureCaptureTimeout {
		level = slog.LevelDebug
	}
	a.logger.Log(ctx, level, "iteration failed",
		"stage", se.Kind,
		"action", policy.Action,
		"consecutive", count,
		"error", se.Err,
	)

	switch policy.Action {
	case RecoverAbort:
		return se
	case RecoverWithApology:
		a.console.System(a.opts.FallbackMessage)
	}

	if policy.EscalateAfter > 0 && count == policy.EscalateAfter {
		a.escalate(ctx, se, count)
	}

	if policy.Pause > 0 {
		timer := time.NewTimer(policy.Pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func (a *Assistant) escalate(ctx context.Context, se *domain.StageError, count int) {
	msg := fmt.Sprintf("%d consecutive %s failures, last error: %v", count, se.Kind, se.Err)
	a.logger.Error("escalating repeated failure", "stage", se.Kind, "consecutive", count)
	if err := a.notifier.Notify(ctx, msg); err != nil {
		a.logger.Error("notifying failure", "error", err)
	}
}

func (a *Assistant) setState(s domain.State) {
	if prev := a.state.Swap(s); prev != s {
		a.logger.Debug("state changed", "from", prev, "to", s)
	}
	a.recorder.SetState(s)
}
