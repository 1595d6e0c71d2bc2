// Package config loads process settings from flags, environment and an
// optional config file through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultReplyMaxLines applies when neither config nor persona set a line limit.
const DefaultReplyMaxLines = 3

// EnvPrefix namespaces environment overrides, e.g. ELLIE_LLM_PROVIDER.
const EnvPrefix = "ELLIE"

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

type LLM struct {
	Provider    string
	Model       string
	APIKey      string
	MaxTokens   int64
	Temperature float64
}

type Memory struct {
	MaxEntries    int
	Window        int
	ContextBudget int
}

type Trigger struct {
	WakePhrase string
	IgnoreBots bool
}

type Generation struct {
	Timeout     time.Duration
	MaxInFlight int64
}

type Persona struct {
	File string
	Root string
}

type Logging struct {
	Level  string
	Format string
}

// Config is the validated process configuration.
type Config struct {
	SelfID       string
	LLM          LLM
	Memory       Memory
	Trigger      Trigger
	Generation   Generation
	Persona      Persona
	Logging      Logging
	HealthListen string

	// ReplyMaxLines is DefaultReplyMaxLines unless ReplyMaxLinesSet.
	ReplyMaxLines    int
	ReplyMaxLinesSet bool
}

// SetDefaults registers every known key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("agent.self_id", "ellie")
	v.SetDefault("llm.provider", ProviderAnthropic)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.temperature", 0.9)
	v.SetDefault("memory.max_entries", 20)
	v.SetDefault("memory.window", 10)
	v.SetDefault("memory.context_budget", 6000)
	v.SetDefault("trigger.wake_phrase", "")
	v.SetDefault("trigger.ignore_bots", true)
	v.SetDefault("generation.timeout", 30*time.Second)
	v.SetDefault("generation.max_in_flight", 4)
	v.SetDefault("persona.file", "")
	v.SetDefault("persona.root", ".")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("health.listen", "0.0.0.0:10000")
}

// BindEnv wires ELLIE_* environment overrides into v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// ReadFile merges the config file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		SelfID: strings.TrimSpace(v.GetString("agent.self_id")),
		LLM: LLM{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			Model:       strings.TrimSpace(v.GetString("llm.model")),
			APIKey:      strings.TrimSpace(v.GetString("llm.api_key")),
			MaxTokens:   v.GetInt64("llm.max_tokens"),
			Temperature: v.GetFloat64("llm.temperature"),
		},
		Memory: Memory{
			MaxEntries:    v.GetInt("memory.max_entries"),
			Window:        v.GetInt("memory.window"),
			ContextBudget: v.GetInt("memory.context_budget"),
		},
		Trigger: Trigger{
			WakePhrase: v.GetString("trigger.wake_phrase"),
			IgnoreBots: v.GetBool("trigger.ignore_bots"),
		},
		Generation: Generation{
			Timeout:     v.GetDuration("generation.timeout"),
			MaxInFlight: v.GetInt64("generation.max_in_flight"),
		},
		Persona: Persona{
			File: strings.TrimSpace(v.GetString("persona.file")),
			Root: strings.TrimSpace(v.GetString("persona.root")),
		},
		Logging: Logging{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		HealthListen:  strings.TrimSpace(v.GetString("health.listen")),
		ReplyMaxLines: DefaultReplyMaxLines,
	}
	// No default is registered for reply.max_lines so IsSet means the user chose it.
	if v.IsSet("reply.max_lines") {
		cfg.ReplyMaxLines = v.GetInt("reply.max_lines")
		cfg.ReplyMaxLinesSet = true
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(cfg.LLM.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case ProviderGemini:
		if k := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); k != "" {
			return k
		}
		return strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	return ""
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderGemini:
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be one of anthropic, gemini, mock; got %q", c.LLM.Provider))
	}
	if c.SelfID == "" {
		errs = append(errs, errors.New("agent.self_id must not be empty"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be positive; got %d", c.LLM.MaxTokens))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be within [0, 2]; got %v", c.LLM.Temperature))
	}
	if c.Memory.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("memory.max_entries must be positive; got %d", c.Memory.MaxEntries))
	}
	if c.Memory.Window < 0 {
		errs = append(errs, fmt.Errorf("memory.window must not be negative; got %d", c.Memory.Window))
	}
	if c.Memory.ContextBudget < 0 {
		errs = append(errs, fmt.Errorf("memory.context_budget must not be negative; got %d", c.Memory.ContextBudget))
	}
	if c.ReplyMaxLines < 0 {
		errs = append(errs, fmt.Errorf("reply.max_lines must not be negative; got %d", c.ReplyMaxLines))
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("generation.timeout must be positive; got %s", c.Generation.Timeout))
	}
	if c.Generation.MaxInFlight <= 0 {
		errs = append(errs, fmt.Errorf("generation.max_in_flight must be positive; got %d", c.Generation.MaxInFlight))
	}
	return errors.Join(errs...)
}
