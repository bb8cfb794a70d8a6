package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"jarvis/config"
	"jarvis/internal/application"
	"jarvis/internal/infra"
	"jarvis/internal/infra/anthropic"
	"jarvis/internal/infra/audio"
	"jarvis/internal/infra/gemini"
	"jarvis/internal/infra/googlespeech"
	"jarvis/internal/infra/metrics"
	"jarvis/internal/infra/openai"
	"jarvis/internal/infra/pushover"
	"jarvis/internal/infra/voice"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the conversation.
	logger := setupLogger(cfg.Log, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	policies, err := cfg.Policies()
	if err != nil {
		return err
	}

	stt, closeSTT, err := createSpeechToText(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating transcriber: %w", err)
	}
	defer closeSTT()

	gen, err := createGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	gen = infra.NewThrottledGenerator(gen, cfg.Generation.RequestsPerMinute)

	tts, closeTTS, err := createSynthesizer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating synthesizer: %w", err)
	}
	defer closeTTS()

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, cfg.Assistant.Name)
	} else {
		notifier = &application.NoopNotifier{}
	}

	var recorder application.Recorder = application.NoopRecorder{}
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		recorder = collector
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}

	assistant := application.NewAssistant(
		application.Dependencies{
			Audio:       createAudioSource(cfg.Audio, logger),
			STT:         stt,
			Generator:   gen,
			Synthesizer: tts,
			Notifier:    notifier,
			Recorder:    recorder,
			Console:     application.NewConsole(os.Stdout, cfg.Assistant.Name),
			Logger:      logger,
		},
		application.Options{
			Greeting:        cfg.Assistant.Greeting,
			FallbackMessage: cfg.Assistant.Fallback,
			ListenTimeout:   cfg.Assistant.ListenTimeout,
			Policies:        policies,
		},
	)

	logger.Info("starting voice assistant",
		"audio_source", cfg.Audio.Source,
		"transcription", cfg.Transcription.Provider,
		"generation", cfg.Generation.Provider,
		"synthesis", cfg.Synthesis.Provider,
	)

	return assistant.Run(ctx)
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "http":
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case "file":
		return audio.NewFileSource(cfg.FileDir, logger)
	default:
		endpoint := audio.DefaultEndpointConfig(cfg.SampleRate)
		endpoint.SilenceThreshold = int16(cfg.SilenceThreshold)
		endpoint.SilenceDuration = cfg.SilenceDuration
		endpoint.MaxPhrase = cfg.MaxPhrase
		return audio.NewMicrophoneSource(endpoint, logger)
	}
}

func createSpeechToText(ctx context.Context, cfg *config.Config) (application.SpeechToText, func(), error) {
	switch cfg.Transcription.Provider {
	case "openai":
		return openai.NewWhisperClientWithURL(cfg.OpenAI.APIKey, cfg.Transcription.Language, baseURL(cfg.OpenAI)), func() {}, nil
	default:
		recognizer, err := googlespeech.New(ctx, googlespeech.Config{
			Language:        cfg.Transcription.Language,
			SampleRate:      cfg.Audio.SampleRate,
			CredentialsFile: cfg.Google.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		return recognizer, func() { recognizer.Close() }, nil
	}
}

func createGenerator(ctx context.Context, cfg *config.Config) (application.Generator, error) {
	g := cfg.Generation
	switch g.Provider {
	case "openai":
		return openai.NewChatClientWithURL(cfg.OpenAI.APIKey, openai.ChatConfig{
			Model:             g.Model,
			SystemInstruction: g.SystemInstruction,
			Temperature:       g.Temperature,
			MaxTokens:         g.MaxOutputTokens,
		}, baseURL(cfg.OpenAI)), nil
	case "anthropic":
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, g.Model, g.SystemInstruction, g.MaxOutputTokens), nil
	default:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:            cfg.Gemini.APIKey,
			Model:             g.Model,
			SystemInstruction: g.SystemInstruction,
			Temperature:       g.Temperature,
			MaxOutputTokens:   int32(g.MaxOutputTokens),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func createSynthesizer(cfg *config.Config, logger *slog.Logger) (application.Synthesizer, func(), error) {
	s := cfg.Synthesis
	switch s.Provider {
	case "openai":
		speaker, err := audio.NewSpeaker(logger)
		if err != nil {
			return nil, nil, err
		}
		client := openai.NewSpeechClientWithURL(cfg.OpenAI.APIKey, openai.SpeechConfig{
			Model: s.Model,
			Voice: s.Voice,
			Speed: s.Speed,
		}, speaker, baseURL(cfg.OpenAI))
		return client, func() { speaker.Close() }, nil
	default:
		local, err := voice.NewLocalSynthesizer(voice.LocalConfig{
			Command: s.Command,
			Voice:   s.Voice,
			Rate:    s.Rate,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return local, func() {}, nil
	}
}

func baseURL(cfg config.OpenAIConfig) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return openai.DefaultBaseURL
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
