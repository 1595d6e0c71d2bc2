package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Dispatcher routes prefixed lines to command handlers. Unknown commands are
// ignored.
type Dispatcher struct {
	prefix string
	defs   map[string]Definition
}

func NewDispatcher(prefix string, defs []Definition) *Dispatcher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[strings.ToLower(d.Name)] = d
	}
	return &Dispatcher{prefix: prefix, defs: m}
}

// Parse splits ".name rest of line" into the lower-cased name and its
// trimmed arguments.
func (d *Dispatcher) Parse(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, d.prefix) {
		return "", "", false
	}
	rest := text[len(d.prefix):]
	name, args, _ = strings.Cut(rest, " ")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// Dispatch runs the command on text, if any. The definition's Ack goes out
// through send before the handler starts; the handler's reply follows. It
// returns false when text is not a known command, and the first send error.
func (d *Dispatcher) Dispatch(ctx context.Context, channelID, text string, send func(string) error) (bool, error) {
	name, args, ok := d.Parse(text)
	if !ok {
		return false, nil
	}
	def, ok := d.defs[name]
	if !ok {
		return false, nil
	}
	if def.Ack != "" {
		if err := send(def.Ack); err != nil {
			return true, fmt.Errorf("%s ack: %w", name, err)
		}
	}
	reply := def.Handler(ctx, Invocation{ChannelID: channelID, Args: args})
	if err := send(reply); err != nil {
		return true, fmt.Errorf("%s reply: %w", name, err)
	}
	return true, nil
}

// Names lists the registered command names, sorted.
func (d *Dispatcher) Names() []string {
	out := make([]string, 0, len(d.defs))
	for n := range d.defs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
