package provider

import (
	"strings"

	"github.com/petasbytes/ellie/memory"
)

// Render serializes a Request into the provider's shape: one system
// instruction and one user turn (history, anchor, then the new message).
func Render(req Request) (system, user string) {
	system = strings.TrimSpace(req.SystemPersona)
	if lore := strings.TrimSpace(req.StaticContext); lore != "" {
		if system != "" {
			system += "\n\n"
		}
		system += lore
	}

	name := strings.TrimSpace(req.AgentName)
	if name == "" {
		name = "assistant"
	}

	var b strings.Builder
	if len(req.RecentMemory) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, e := range req.RecentMemory {
			if e.Speaker == memory.SpeakerAgent {
				b.WriteString(name)
			} else {
				b.WriteString("user")
			}
			b.WriteString(": ")
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if anchor := strings.TrimSpace(req.AnchorText); anchor != "" {
		b.WriteString("[You (")
		b.WriteString(name)
		b.WriteString(") said this earlier:] ")
		b.WriteString(anchor)
		b.WriteString("\n\n")
	}
	if b.Len() == 0 {
		return system, req.UserText
	}
	b.WriteString("New message:\n")
	b.WriteString(req.UserText)
	return system, b.String()
}
