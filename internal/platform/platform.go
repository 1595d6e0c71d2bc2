// Package platform describes what the agent needs from a chat platform:
// inbound message events, fetching a message by id, and sending replies.
package platform

import "context"

// InboundMessage is a chat message as seen by the agent.
type InboundMessage struct {
	ChannelID           string
	MessageID           string
	Text                string
	AuthorID            string
	IsBot               bool
	ReferencedMessageID string // empty when the message is not a reply
}

// Message is a previously sent message returned by a Fetcher.
type Message struct {
	ID       string
	AuthorID string
	Text     string
}

// FetchStatus classifies the outcome of a fetch.
type FetchStatus int

const (
	FetchFound FetchStatus = iota
	FetchNotFound
	FetchError
)

func (s FetchStatus) String() string {
	switch s {
	case FetchFound:
		return "found"
	case FetchNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// FetchResult is returned instead of an error so platform failures
// (deleted messages, missing permissions, network) stay inside the result.
type FetchResult struct {
	Status  FetchStatus
	Message Message
	Err     error // set when Status == FetchError
}

func Found(m Message) FetchResult { return FetchResult{Status: FetchFound, Message: m} }

func NotFound() FetchResult { return FetchResult{Status: FetchNotFound} }

func FetchFailed(err error) FetchResult { return FetchResult{Status: FetchError, Err: err} }

// Fetcher resolves a message by id within a channel.
type Fetcher interface {
	FetchMessage(ctx context.Context, channelID, messageID string) FetchResult
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, channelID, messageID string) FetchResult

func (f FetcherFunc) FetchMessage(ctx context.Context, channelID, messageID string) FetchResult {
	return f(ctx, channelID, messageID)
}

// Sender delivers an outbound reply to a channel and returns the new message id.
type Sender interface {
	Send(ctx context.Context, channelID, text string) (string, error)
}
