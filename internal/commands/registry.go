package commands

import (
	"context"
	"strings"

	"github.com/petasbytes/ellie/memory"
)

// DefaultPrefix starts every command.
const DefaultPrefix = "."

// Invocation is one parsed command call.
type Invocation struct {
	ChannelID string
	Args      string
}

type Definition struct {
	Name        string
	Description string
	// Ack, when set, is sent before the handler runs.
	Ack     string
	Handler func(ctx context.Context, inv Invocation) string
}

// DirectInvoker answers text without trigger evaluation.
type DirectInvoker interface {
	HandleDirectInvocation(ctx context.Context, key memory.Key, text string) string
}

// Registry returns all command definitions wired for the agent.
func Registry(agent DirectInvoker) []Definition {
	return []Definition{EllieDefinition(agent), HealthDefinition}
}

const ellieUsage = "Usage: .ellie <message>"

// EllieDefinition talks to the agent directly, bypassing the wake phrase.
func EllieDefinition(agent DirectInvoker) Definition {
	return Definition{
		Name:        "ellie",
		Description: "Chat with Ellie",
		Ack:         "Thinking...",
		Handler: func(ctx context.Context, inv Invocation) string {
			text := strings.TrimSpace(inv.Args)
			if text == "" {
				return ellieUsage
			}
			return agent.HandleDirectInvocation(ctx, memory.Key(inv.ChannelID), text)
		},
	}
}

var HealthDefinition = Definition{
	Name:        "health",
	Description: "Check if Ellie is alive",
	Handler: func(context.Context, Invocation) string {
		return "ok"
	},
}
