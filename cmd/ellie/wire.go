package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/petasbytes/ellie/internal/agent"
	"github.com/petasbytes/ellie/internal/config"
	"github.com/petasbytes/ellie/internal/logging"
	"github.com/petasbytes/ellie/internal/persona"
	"github.com/petasbytes/ellie/internal/platform"
	"github.com/petasbytes/ellie/internal/provider"
	"github.com/petasbytes/ellie/internal/telemetry"
	"github.com/petasbytes/ellie/memory"
)

// runtime is the validated startup state shared by subcommands.
type runtime struct {
	cfg     config.Config
	persona persona.Persona
	logger  *zap.Logger
	gen     provider.Generator
}

func loadRuntime(ctx context.Context, v *viper.Viper) (*runtime, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}
	telemetry.SetLogger(logger.Named("telemetry"))
	p, err := persona.Load(cfg.Persona.Root, cfg.Persona.File)
	if err != nil {
		return nil, fmt.Errorf("persona: %w", err)
	}
	gen, err := newGenerator(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, persona: p, logger: logger, gen: gen}, nil
}

// newAgent builds the agent around fetcher, which may be nil when the
// caller has no message history to resolve replies against.
func (rt *runtime) newAgent(fetcher platform.Fetcher) *agent.Agent {
	cfg := rt.cfg
	a := agent.New(agent.Options{
		SelfID:        cfg.SelfID,
		WakePhrase:    wakePhrase(cfg, rt.persona),
		IgnoreBots:    cfg.Trigger.IgnoreBots,
		Persona:       rt.persona,
		Fetcher:       fetcher,
		Generator:     rt.gen,
		Store:         memory.NewStore(cfg.Memory.MaxEntries),
		Window:        cfg.Memory.Window,
		ContextBudget: cfg.Memory.ContextBudget,
		MaxLines:      maxLines(cfg, rt.persona),
		Timeout:       cfg.Generation.Timeout,
		MaxInFlight:   cfg.Generation.MaxInFlight,
		Logger:        rt.logger,
	})
	rt.logger.Info("agent ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("persona", rt.persona.Name),
		zap.String("wake_phrase", a.WakePhrase()),
		zap.Int("max_entries", a.Store().MaxEntries()))
	return a
}

func newGenerator(ctx context.Context, c config.LLM) (provider.Generator, error) {
	switch c.Provider {
	case config.ProviderAnthropic:
		client := provider.NewAnthropicClient(option.WithAPIKey(c.APIKey))
		return provider.NewAnthropicGenerator(client, c.Model, c.MaxTokens, c.Temperature), nil
	case config.ProviderGemini:
		return provider.NewGeminiGenerator(ctx, c.APIKey, c.Model, c.MaxTokens, c.Temperature)
	case config.ProviderMock:
		return provider.NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}
}

// wakePhrase prefers explicit config over the persona's own phrase.
func wakePhrase(cfg config.Config, p persona.Persona) string {
	if w := strings.TrimSpace(cfg.Trigger.WakePhrase); w != "" {
		return w
	}
	return p.DefaultWakePhrase()
}

// maxLines prefers an explicitly set reply.max_lines, then the persona, then
// the built-in default.
func maxLines(cfg config.Config, p persona.Persona) int {
	if cfg.ReplyMaxLinesSet {
		return cfg.ReplyMaxLines
	}
	if p.MaxLines > 0 {
		return p.MaxLines
	}
	return cfg.ReplyMaxLines
}
