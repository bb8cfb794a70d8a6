package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jarvis/internal/application"
	"jarvis/internal/domain"
)

type Config struct {
	Assistant     AssistantConfig           `yaml:"assistant"`
	Audio         AudioConfig               `yaml:"audio"`
	Transcription TranscriptionConfig       `yaml:"transcription"`
	Generation    GenerationConfig          `yaml:"generation"`
	Synthesis     SynthesisConfig           `yaml:"synthesis"`
	Gemini        GeminiConfig              `yaml:"gemini"`
	OpenAI        OpenAIConfig              `yaml:"openai"`
	Anthropic     AnthropicConfig           `yaml:"anthropic"`
	Google        GoogleConfig              `yaml:"google"`
	Recovery      map[string]RecoveryConfig `yaml:"recovery"`
	Pushover      PushoverConfig            `yaml:"pushover"`
	Metrics       MetricsConfig             `yaml:"metrics"`
	Log           LogConfig                 `yaml:"log"`
}

type AssistantConfig struct {
	Name string `yaml:"name"`
	// Greeting is spoken at startup. Set it to "-" to stay silent.
	Greeting      string        `yaml:"greeting"`
	Fallback      string        `yaml:"fallback"`
	ListenTimeout time.Duration `yaml:"listen_timeout"`
}

type AudioConfig struct {
	Source           string        `yaml:"source"`
	HTTPAddr         string        `yaml:"http_addr"`
	FileDir          string        `yaml:"file_dir"`
	SampleRate       int           `yaml:"sample_rate"`
	AuthToken        string        `yaml:"auth_token"`
	SilenceThreshold int           `yaml:"silence_threshold"`
	SilenceDuration  time.Duration `yaml:"silence_duration"`
	MaxPhrase        time.Duration `yaml:"max_phrase"`
}

type TranscriptionConfig struct {
	Provider string `yaml:"provider"`
	Language string `yaml:"language"`
}

type GenerationConfig struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	SystemInstruction string  `yaml:"system_instruction"`
	Temperature       float32 `yaml:"temperature"`
	MaxOutputTokens   int     `yaml:"max_output_tokens"`
	// RequestsPerMinute throttles calls to the model. Zero disables throttling.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

type SynthesisConfig struct {
	Provider string  `yaml:"provider"`
	Command  string  `yaml:"command"`
	Voice    string  `yaml:"voice"`
	Rate     int     `yaml:"rate"`
	Model    string  `yaml:"model"`
	Speed    float64 `yaml:"speed"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// RecoveryConfig overrides one failure kind's policy. Unset fields keep the
// default, so an explicit 0 turns a pause or escalation off.
type RecoveryConfig struct {
	Action        string         `yaml:"action"`
	Pause         *time.Duration `yaml:"pause"`
	EscalateAfter *int           `yaml:"escalate_after"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path. A .env file next to it, if present, is
// loaded first so its variables can be referenced as ${VAR}.
func Load(path string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envPath, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Assistant.Name == "" {
		c.Assistant.Name = "Jarvis"
	}
	switch c.Assistant.Greeting {
	case "":
		c.Assistant.Greeting = application.DefaultGreeting
	case "-":
		c.Assistant.Greeting = ""
	}
	if c.Assistant.Fallback == "" {
		c.Assistant.Fallback = application.DefaultFallbackMessage
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.SilenceThreshold == 0 {
		c.Audio.SilenceThreshold = 500
	}
	if c.Audio.SilenceDuration == 0 {
		c.Audio.SilenceDuration = 800 * time.Millisecond
	}
	if c.Audio.MaxPhrase == 0 {
		c.Audio.MaxPhrase = 10 * time.Second
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "google"
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = "en-US"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "gemini"
	}
	if c.Synthesis.Provider == "" {
		c.Synthesis.Provider = "local"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Audio.Source {
	case "microphone", "http", "file":
	default:
		errs = append(errs, fmt.Errorf("audio.source: unknown source %q", c.Audio.Source))
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 48000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate: %d out of range 8000-48000", c.Audio.SampleRate))
	}
	if c.Audio.SilenceThreshold < 0 || c.Audio.SilenceThreshold > 32767 {
		errs = append(errs, fmt.Errorf("audio.silence_threshold: %d out of range 0-32767", c.Audio.SilenceThreshold))
	}
	if c.Assistant.ListenTimeout < 0 {
		errs = append(errs, errors.New("assistant.listen_timeout: must not be negative"))
	}

	switch c.Transcription.Provider {
	case "google":
	case "openai":
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai.api_key: required for openai transcription"))
		}
	default:
		errs = append(errs, fmt.Errorf("transcription.provider: unknown provider %q", c.Transcription.Provider))
	}

	switch c.Generation.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("gemini.api_key: required for gemini generation"))
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai.api_key: required for openai generation"))
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			errs = append(errs, errors.New("anthropic.api_key: required for anthropic generation"))
		}
	default:
		errs = append(errs, fmt.Errorf("generation.provider: unknown provider %q", c.Generation.Provider))
	}
	if c.Generation.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("generation.requests_per_minute: must not be negative"))
	}

	switch c.Synthesis.Provider {
	case "local":
	case "openai":
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai.api_key: required for openai synthesis"))
		}
	default:
		errs = append(errs, fmt.Errorf("synthesis.provider: unknown provider %q", c.Synthesis.Provider))
	}

	if _, err := c.Policies(); err != nil {
		errs = append(errs, err)
	}

	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		errs = append(errs, errors.New("pushover: token and user_key required when enabled"))
	}

	return errors.Join(errs...)
}

// Policies converts the recovery section into loop policies. Kinds left out
// keep their defaults.
func (c *Config) Policies() (application.Policies, error) {
	policies := make(application.Policies, len(c.Recovery))
	for name, rc := range c.Recovery {
		kind, err := domain.ParseFailureKind(name)
		if err != nil {
			return nil, fmt.Errorf("recovery: %w", err)
		}

		policy := application.DefaultPolicies().For(kind)
		if rc.Action != "" {
			action, err := application.ParseRecoveryAction(rc.Action)
			if err != nil {
				return nil, fmt.Errorf("recovery.%s: %w", name, err)
			}
			policy.Action = action
		}
		if rc.Pause != nil {
			if *rc.Pause < 0 {
				return nil, fmt.Errorf("recovery.%s: pause must not be negative", name)
			}
			policy.Pause = *rc.Pause
		}
		if rc.EscalateAfter != nil {
			if *rc.EscalateAfter < 0 {
				return nil, fmt.Errorf("recovery.%s: escalate_after must not be negative", name)
			}
			policy.EscalateAfter = *rc.EscalateAfter
		}
		policies[kind] = policy
	}
	return policies, nil
}
