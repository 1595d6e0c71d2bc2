// Package finalize turns a generation outcome into outbound text and records
// successful exchanges in memory.
package finalize

import (
	"strings"
	"time"

	"github.com/petasbytes/ellie/internal/provider"
	"github.com/petasbytes/ellie/memory"
)

// User-facing fallbacks, one per failure kind.
const (
	FallbackRateLimited      = "I'm thinking too fast and hit a rate limit. Try again in a second."
	FallbackUnauthorized     = "My API key is invalid or expired."
	FallbackModelUnavailable = "The model I run on is unavailable right now. Try again later."
	FallbackEmpty            = "I came up blank on that one. Try rephrasing."
	FallbackUnknown          = "Something glitched in my head. Try again."
)

// Fallback returns the fixed sentence for kind.
func Fallback(kind provider.FailureKind) string {
	switch kind {
	case provider.FailureRateLimited:
		return FallbackRateLimited
	case provider.FailureUnauthorized:
		return FallbackUnauthorized
	case provider.FailureModelUnavailable:
		return FallbackModelUnavailable
	case provider.FailureEmpty:
		return FallbackEmpty
	default:
		return FallbackUnknown
	}
}

// Writer is the write side of the memory store.
type Writer interface {
	AppendExchange(key memory.Key, user, agent memory.Entry)
}

type Result struct {
	Text      string
	Failure   provider.FailureKind // FailureNone on success
	Committed bool                 // true when the exchange was appended to memory
}

type Finalizer struct {
	store    Writer
	maxLines int
}

// New returns a Finalizer writing to store. maxLines > 0 keeps at most that
// lines of a reply; 0 leaves replies untruncated.
func New(store Writer, maxLines int) *Finalizer {
	if maxLines < 0 {
		maxLines = 0
	}
	return &Finalizer{store: store, maxLines: maxLines}
}

// Finalize applies the reply policy. On success the user and agent entries
// are appended in that order; on failure memory is left untouched.
func (f *Finalizer) Finalize(key memory.Key, userText string, out provider.Outcome, now time.Time) Result {
	if !out.OK() {
		return Result{Text: Fallback(out.Failure), Failure: out.Failure}
	}

	text := ShapeReply(out.Text, f.maxLines)
	if text == "" {
		return Result{Text: Fallback(provider.FailureEmpty), Failure: provider.FailureEmpty}
	}

	if f.store != nil {
		f.store.AppendExchange(key, memory.UserEntry(userText, now), memory.AgentEntry(text, now))
	}
	return Result{Text: text, Committed: f.store != nil}
}

// ShapeReply trims surrounding whitespace and, when maxLines > 0, keeps the
// first maxLines newline-delimited lines. Lines are kept as written; blank
// lines count toward the limit.
func ShapeReply(text string, maxLines int) string {
	text = strings.TrimSpace(text)
	if maxLines <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	return strings.TrimSpace(strings.Join(lines[:maxLines], "\n"))
}
