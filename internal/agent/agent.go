package agent

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/petasbytes/ellie/internal/assembler"
	"github.com/petasbytes/ellie/internal/finalize"
	"github.com/petasbytes/ellie/internal/metrics"
	"github.com/petasbytes/ellie/internal/persona"
	"github.com/petasbytes/ellie/internal/platform"
	"github.com/petasbytes/ellie/internal/provider"
	"github.com/petasbytes/ellie/internal/telemetry"
	"github.com/petasbytes/ellie/internal/trigger"
	"github.com/petasbytes/ellie/memory"
)

// DefaultMaxInFlight bounds concurrent provider calls when Options leaves it unset.
const DefaultMaxInFlight = 4

type Options struct {
	// SelfID is the platform author id of the agent itself.
	SelfID     string
	WakePhrase string
	IgnoreBots bool

	Persona   persona.Persona
	Fetcher   platform.Fetcher
	Generator provider.Generator
	// Store defaults to a fresh memory.NewStore(memory.DefaultMaxEntries).
	Store *memory.Store

	Window        int
	ContextBudget int
	MaxLines      int
	Timeout       time.Duration
	MaxInFlight   int64

	Logger   *zap.Logger
	Counters *metrics.Counters
	Now      func() time.Time
}

// Agent is safe for concurrent use. Handlers may be invoked from many
// goroutines; generation runs concurrently while commits stay ordered per key.
type Agent struct {
	store     *memory.Store
	evaluator *trigger.Evaluator
	assembler *assembler.Assembler
	adapter   *provider.Adapter
	finalizer *finalize.Finalizer

	queue    *turnQueue
	inFlight *semaphore.Weighted
	logger   *zap.Logger
	counters *metrics.Counters
	now      func() time.Time
}

func New(opts Options) *Agent {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Store
	if store == nil {
		store = memory.NewStore(memory.DefaultMaxEntries)
	}
	maxInFlight := opts.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	counters := opts.Counters
	if counters == nil {
		counters = &metrics.Counters{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Agent{
		store: store,
		evaluator: trigger.NewEvaluator(trigger.Options{
			SelfID:     opts.SelfID,
			WakePhrase: opts.WakePhrase,
			IgnoreBots: opts.IgnoreBots,
			Fetcher:    opts.Fetcher,
			Logger:     logger.Named("trigger"),
		}),
		assembler: assembler.New(assembler.Options{
			Persona: opts.Persona,
			Window:  opts.Window,
			Budget:  opts.ContextBudget,
			Logger:  logger.Named("window"),
		}),
		adapter: provider.NewAdapter(opts.Generator, provider.AdapterOptions{
			Timeout: opts.Timeout,
			Logger:  logger.Named("provider"),
		}),
		finalizer: finalize.New(store, opts.MaxLines),
		queue:     newTurnQueue(),
		inFlight:  semaphore.NewWeighted(maxInFlight),
		logger:    logger,
		counters:  counters,
		now:       now,
	}
}

// Store returns the memory store the agent reads and writes.
func (a *Agent) Store() *memory.Store { return a.store }

// Counters returns the agent's outcome counters.
func (a *Agent) Counters() *metrics.Counters { return a.counters }

// WakePhrase returns the normalized phrase that triggers a reply.
func (a *Agent) WakePhrase() string { return a.evaluator.WakePhrase() }

// HandleMessage processes one inbound message. ok is false when the agent
// stays silent; otherwise reply is the text to send, which may be a fallback.
func (a *Agent) HandleMessage(ctx context.Context, msg platform.InboundMessage) (reply string, ok bool) {
	a.counters.MessageReceived()
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	key := memory.Key(msg.ChannelID)

	// Take a place in line before the reference fetch so arrival order holds.
	t := a.queue.acquire(key)
	defer t.release()

	dec := a.evaluator.Evaluate(ctx, msg)
	telemetry.Emit("trigger_decided", map[string]any{
		"turn_id":      turnID,
		"channel":      msg.ChannelID,
		"message_id":   msg.MessageID,
		"should_reply": dec.ShouldReply,
		"reason":       dec.Reason,
		"has_anchor":   dec.AnchorText != "",
	})
	if !dec.ShouldReply {
		a.logger.Debug("message ignored",
			zap.String("channel", msg.ChannelID),
			zap.String("reason", dec.Reason))
		return "", false
	}
	a.counters.TurnTriggered()
	return a.respond(ctx, turnID, key, t, dec, msg.Text), true
}

// HandleDirectInvocation answers text unconditionally, bypassing the trigger
// evaluation. It still reads and writes memory for key.
func (a *Agent) HandleDirectInvocation(ctx context.Context, key memory.Key, text string) string {
	a.counters.DirectInvocation()
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	t := a.queue.acquire(key)
	defer t.release()

	dec := trigger.Decision{ShouldReply: true, Reason: trigger.ReasonDirect}
	return a.respond(ctx, turnID, key, t, dec, text)
}

func (a *Agent) respond(ctx context.Context, turnID string, key memory.Key, t *ticket, dec trigger.Decision, text string) string {
	logger := a.logger.With(zap.String("channel", string(key)), zap.String("turn_id", turnID))

	req, stats := a.assembler.Build(a.store, key, dec, text)
	telemetry.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	if stats.OverBudgetNewest {
		logger.Warn("newest exchange exceeds context budget; sending without history",
			zap.Int("budget", stats.Budget))
	}

	start := time.Now()
	out := a.generate(ctx, req)
	telemetry.Emit("generation_finished", map[string]any{
		"turn_id":     turnID,
		"ok":          out.OK(),
		"failure":     out.Failure.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if err := t.wait(ctx); err != nil {
		logger.Warn("gave up waiting for earlier turn", zap.Error(err))
		out = provider.Failed(provider.FailureUnknown)
	}
	res := a.finalizer.Finalize(key, text, out, a.now())

	fallback := res.Failure != provider.FailureNone
	a.counters.ReplySent(fallback)
	telemetry.EmitReplyFeatures(ctx, text, res.Text)
	if fallback {
		logger.Info("replied with fallback", zap.String("failure", res.Failure.String()))
	} else {
		logger.Debug("replied", zap.Bool("committed", res.Committed), zap.Int("memory_len", a.store.Len(key)))
	}
	return res.Text
}

func (a *Agent) generate(ctx context.Context, req provider.Request) provider.Outcome {
	if err := a.inFlight.Acquire(ctx, 1); err != nil {
		a.logger.Warn("generation slot unavailable", zap.Error(err))
		return provider.Failed(provider.FailureUnknown)
	}
	defer a.inFlight.Release(1)
	return a.adapter.Generate(ctx, req)
}
