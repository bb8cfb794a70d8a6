package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Engines are tried in order when no command is configured.
var Engines = []string{"espeak-ng", "espeak", "say"}

var ErrNoEngine = errors.New("no speech engine found")

type LocalConfig struct {
	// Command overrides engine discovery. It may be a name on PATH or a full path.
	Command string
	Voice   string
	// Rate is words per minute. Zero keeps the engine default.
	Rate int
}

// LocalSynthesizer speaks through a command-line engine installed on the host.
type LocalSynthesizer struct {
	path   string
	engine string
	voice  string
	rate   int
	logger *slog.Logger
}

func NewLocalSynthesizer(cfg LocalConfig, logger *slog.Logger) (*LocalSynthesizer, error) {
	candidates := Engines
	if cfg.Command != "" {
		candidates = []string{cfg.Command}
	}

	for _, name := range candidates {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		logger.Info("using local speech engine", "engine", name, "path", path)
		return &LocalSynthesizer{
			path:   path,
			engine: filepath.Base(name),
			voice:  cfg.Voice,
			rate:   cfg.Rate,
			logger: logger,
		}, nil
	}

	return nil, fmt.Errorf("%w: tried %s", ErrNoEngine, strings.Join(candidates, ", "))
}

// Speak blocks until the engine process exits.
func (s *LocalSynthesizer) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.path, s.args(text)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running %s: %w: %s", s.engine, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *LocalSynthesizer) args(text string) []string {
	return buildArgs(s.engine, s.voice, s.rate, text)
}

func buildArgs(engine, voice string, rate int, text string) []string {
	var args []string
	switch engine {
	case "say":
		if voice != "" {
			args = append(args, "-v", voice)
		}
		if rate > 0 {
			args = append(args, "-r", strconv.Itoa(rate))
		}
	case "espeak", "espeak-ng":
		if voice != "" {
			args = append(args, "-v", voice)
		}
		if rate > 0 {
			args = append(args, "-s", strconv.Itoa(rate))
		}
		// Everything after "--" is text, even when it starts with a dash.
		args = append(args, "--")
	}
	return append(args, text)
}
