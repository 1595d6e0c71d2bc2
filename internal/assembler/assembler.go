// Package assembler builds a provider.Request from the persona, the recent
// memory window, the trigger anchor, and the current user text.
//
// Build is deterministic for a given store state and performs no I/O.
package assembler

import (
	"go.uber.org/zap"

	"github.com/petasbytes/ellie/internal/persona"
	"github.com/petasbytes/ellie/internal/provider"
	"github.com/petasbytes/ellie/internal/trigger"
	"github.com/petasbytes/ellie/internal/windowing"
	"github.com/petasbytes/ellie/memory"
)

// DefaultWindow is the number of recent entries read from memory per request.
const DefaultWindow = 10

// RecentReader is the read side of the memory store.
type RecentReader interface {
	Recent(key memory.Key, n int) []memory.Entry
}

type Options struct {
	Persona persona.Persona
	// Window bounds how many entries are read; <= 0 uses DefaultWindow.
	Window int
	// Budget bounds the estimated size of the memory window; <= 0 disables trimming.
	Budget  int
	Counter windowing.TokenCounter
	Logger  *zap.Logger
}

type Assembler struct {
	persona persona.Persona
	window  int
	budget  int
	counter windowing.TokenCounter
	logger  *zap.Logger
}

func New(opts Options) *Assembler {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	counter := opts.Counter
	if counter == nil {
		counter = windowing.HeuristicCounter{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		persona: opts.Persona,
		window:  window,
		budget:  opts.Budget,
		counter: counter,
		logger:  logger,
	}
}

// Build reads the recent window for key and returns the request together with
// the windowing stats for telemetry. It never writes to the store.
func (a *Assembler) Build(store RecentReader, key memory.Key, dec trigger.Decision, userText string) (provider.Request, windowing.Stats) {
	var recent []memory.Entry
	if store != nil {
		recent = store.Recent(key, a.window)
	}
	window, stats := windowing.PrepareWindow(recent, a.budget, a.counter, a.logger)
	if window == nil {
		window = []memory.Entry{}
	}

	return provider.Request{
		AgentName:     a.persona.Name,
		SystemPersona: a.persona.SystemText(),
		StaticContext: a.persona.StaticContext(),
		RecentMemory:  window,
		AnchorText:    dec.AnchorText,
		UserText:      userText,
	}, stats
}
