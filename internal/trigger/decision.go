// Package trigger decides, per inbound message, whether the agent should
// reply and which earlier agent message (if any) anchors the reply.
//
// Precedence (first match wins):
//
//	self-authored -> bot-authored (optional) -> reply to agent -> wake phrase -> none
package trigger

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/petasbytes/ellie/internal/platform"
)

// DefaultWakePhrase is matched case-insensitively anywhere in the message text.
const DefaultWakePhrase = "hey ellie"

const (
	ReasonSelf         = "self"
	ReasonBot          = "bot"
	ReasonReplyToAgent = "reply_to_agent"
	ReasonWakePhrase   = "wake_phrase"
	ReasonNone         = "none"
)

// ReasonDirect marks turns started by an explicit command, which skip evaluation.
const ReasonDirect = "direct"

// Decision is the result of evaluating one inbound message.
// An empty AnchorText means no anchor.
type Decision struct {
	ShouldReply bool
	AnchorText  string
	Reason      string
}

type Options struct {
	SelfID     string
	WakePhrase string
	// IgnoreBots drops every bot-authored message, not just the agent's own.
	IgnoreBots bool
	Fetcher    platform.Fetcher
	Logger     *zap.Logger
}

type Evaluator struct {
	selfID     string
	wakePhrase string
	ignoreBots bool
	fetcher    platform.Fetcher
	logger     *zap.Logger
}

func NewEvaluator(opts Options) *Evaluator {
	phrase := strings.ToLower(strings.TrimSpace(opts.WakePhrase))
	if phrase == "" {
		phrase = DefaultWakePhrase
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		selfID:     opts.SelfID,
		wakePhrase: phrase,
		ignoreBots: opts.IgnoreBots,
		fetcher:    opts.Fetcher,
		logger:     logger,
	}
}

// WakePhrase returns the normalized phrase the evaluator matches on.
func (e *Evaluator) WakePhrase() string { return e.wakePhrase }

// Evaluate classifies msg. It never calls the generation provider and never
// returns an error: an unresolvable reference only downgrades detection.
func (e *Evaluator) Evaluate(ctx context.Context, msg platform.InboundMessage) Decision {
	if e.isSelf(msg.AuthorID) {
		return Decision{Reason: ReasonSelf}
	}
	if e.ignoreBots && msg.IsBot {
		return Decision{Reason: ReasonBot}
	}

	if anchor, ok := e.replyToAgent(ctx, msg); ok {
		return Decision{ShouldReply: true, AnchorText: anchor, Reason: ReasonReplyToAgent}
	}

	if ContainsWakePhrase(msg.Text, e.wakePhrase) {
		return Decision{ShouldReply: true, Reason: ReasonWakePhrase}
	}
	return Decision{Reason: ReasonNone}
}

func (e *Evaluator) isSelf(authorID string) bool {
	return e.selfID != "" && authorID == e.selfID
}

func (e *Evaluator) replyToAgent(ctx context.Context, msg platform.InboundMessage) (string, bool) {
	refID := strings.TrimSpace(msg.ReferencedMessageID)
	if refID == "" || e.fetcher == nil {
		return "", false
	}

	res := e.fetcher.FetchMessage(ctx, msg.ChannelID, refID)
	switch res.Status {
	case platform.FetchFound:
	case platform.FetchNotFound:
		e.logger.Debug("reference unresolvable",
			zap.String("channel", msg.ChannelID),
			zap.String("ref_id", refID),
			zap.String("status", res.Status.String()))
		return "", false
	default:
		e.logger.Debug("reference unresolvable",
			zap.String("channel", msg.ChannelID),
			zap.String("ref_id", refID),
			zap.String("status", res.Status.String()),
			zap.Error(res.Err))
		return "", false
	}

	if !e.isSelf(res.Message.AuthorID) {
		return "", false
	}
	return res.Message.Text, true
}

// ContainsWakePhrase reports whether text contains phrase, ignoring case.
func ContainsWakePhrase(text, phrase string) bool {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), phrase)
}
