package platform

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// MessageHandler is the agent side of the console loop.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg InboundMessage) (string, bool)
}

// CommandRouter handles lines the agent declined to answer. Replies go out
// through send as they are produced.
type CommandRouter interface {
	Dispatch(ctx context.Context, channelID, text string, send func(string) error) (bool, error)
}

type ConsoleOptions struct {
	In  io.Reader
	Out io.Writer
	// ChannelID names the single conversation the console represents.
	ChannelID string
	UserID    string
	SelfID    string
	SelfName  string
	// Prompt is printed before each read when non-empty.
	Prompt string
}

// Console is a line-oriented chat platform over a reader and a writer. Every
// line and every reply gets a numeric message id printed as "[id]". A line
// of the form "^<id> text" is a reply to message <id>.
//
// Console implements Fetcher and Sender over its own message log.
type Console struct {
	in        io.Reader
	out       io.Writer
	channelID string
	userID    string
	selfID    string
	selfName  string
	prompt    string

	mu   sync.Mutex
	seq  int
	msgs map[string]Message

	outMu sync.Mutex
}

func NewConsole(opts ConsoleOptions) *Console {
	c := &Console{
		in:        opts.In,
		out:       opts.Out,
		channelID: opts.ChannelID,
		userID:    opts.UserID,
		selfID:    opts.SelfID,
		selfName:  opts.SelfName,
		prompt:    opts.Prompt,
		msgs:      make(map[string]Message),
	}
	if c.channelID == "" {
		c.channelID = "console"
	}
	if c.userID == "" {
		c.userID = "console-user"
	}
	if c.selfName == "" {
		c.selfName = c.selfID
	}
	return c
}

func (c *Console) ChannelID() string { return c.channelID }

func (c *Console) record(authorID, text string) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	m := Message{ID: strconv.Itoa(c.seq), AuthorID: authorID, Text: text}
	c.msgs[m.ID] = m
	return m
}

// FetchMessage looks up a message in the console log.
func (c *Console) FetchMessage(ctx context.Context, channelID, messageID string) FetchResult {
	if err := ctx.Err(); err != nil {
		return FetchFailed(err)
	}
	if channelID != c.channelID {
		return FetchFailed(fmt.Errorf("console: unknown channel %q", channelID))
	}
	c.mu.Lock()
	m, ok := c.msgs[messageID]
	c.mu.Unlock()
	if !ok {
		return NotFound()
	}
	return Found(m)
}

// Send records text as authored by the agent and prints it.
func (c *Console) Send(_ context.Context, channelID, text string) (string, error) {
	if channelID != c.channelID {
		return "", fmt.Errorf("console: unknown channel %q", channelID)
	}
	m := c.record(c.selfID, text)
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if _, err := fmt.Fprintf(c.out, "[%s] %s: %s\n", m.ID, c.selfName, text); err != nil {
		return "", fmt.Errorf("console: write: %w", err)
	}
	return m.ID, nil
}

// ParseLine splits an optional "^<id>" reply marker from the text.
func ParseLine(line string) (referencedID, text string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "^") {
		return "", line
	}
	id, rest, _ := strings.Cut(trimmed[1:], " ")
	if id == "" {
		return "", line
	}
	if _, err := strconv.Atoi(id); err != nil {
		return "", line
	}
	return id, strings.TrimSpace(rest)
}

// Run reads lines until EOF or ctx is done. Each line is offered to h; lines
// h declines go to cmds when it is non-nil.
func (c *Console) Run(ctx context.Context, h MessageHandler, cmds CommandRouter) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		c.printPrompt()
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("console: read: %w", err)
					}
				default:
				}
				return nil
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := c.handleLine(ctx, line, h, cmds); err != nil {
			return err
		}
	}
}

func (c *Console) handleLine(ctx context.Context, line string, h MessageHandler, cmds CommandRouter) error {
	ref, text := ParseLine(line)
	m := c.record(c.userID, text)
	msg := InboundMessage{
		ChannelID:           c.channelID,
		MessageID:           m.ID,
		Text:                text,
		AuthorID:            c.userID,
		ReferencedMessageID: ref,
	}

	if reply, ok := h.HandleMessage(ctx, msg); ok {
		_, err := c.Send(ctx, c.channelID, reply)
		return err
	}
	if cmds == nil {
		return nil
	}
	_, err := cmds.Dispatch(ctx, c.channelID, text, func(reply string) error {
		_, err := c.Send(ctx, c.channelID, reply)
		return err
	})
	return err
}

func (c *Console) printPrompt() {
	if c.prompt == "" {
		return
	}
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprint(c.out, c.prompt)
}
