package agent_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/ellie/internal/agent"
	"github.com/petasbytes/ellie/internal/finalize"
	"github.com/petasbytes/ellie/internal/persona"
	"github.com/petasbytes/ellie/internal/platform"
	"github.com/petasbytes/ellie/internal/provider"
	"github.com/petasbytes/ellie/memory"
)

const (
	selfID  = "ellie-bot"
	channel = "general"
)

func newAgent(t *testing.T, gen provider.Generator, mutate ...func(*agent.Options)) *agent.Agent {
	t.Helper()
	opts := agent.Options{
		SelfID:     selfID,
		IgnoreBots: true,
		Persona:    persona.Default(),
		Generator:  gen,
		Store:      memory.NewStore(memory.DefaultMaxEntries),
		MaxLines:   3,
		Timeout:    time.Second,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return agent.New(opts)
}

func reply(text string) provider.Generator {
	return provider.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return text, nil
	})
}

func inbound(text string) platform.InboundMessage {
	return platform.InboundMessage{ChannelID: channel, MessageID: "m-" + text, Text: text, AuthorID: "u1"}
}

func texts(entries []memory.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

func TestHandleMessage_WakePhraseOnEmptyMemory(t *testing.T) {
	var gotUser string
	gen := provider.GeneratorFunc(func(_ context.Context, _, user string) (string, error) {
		gotUser = user
		return "It's 3pm.", nil
	})
	a := newAgent(t, gen)

	out, ok := a.HandleMessage(context.Background(), inbound("hey ellie what time is it"))

	require.True(t, ok)
	assert.Equal(t, "It's 3pm.", out)
	assert.Equal(t, "hey ellie what time is it", gotUser, "no history and no anchor renders the raw text")

	entries := a.Store().Recent(channel, 10)
	require.Len(t, entries, 2)
	assert.Equal(t, memory.SpeakerUser, entries[0].Speaker)
	assert.Equal(t, "hey ellie what time is it", entries[0].Text)
	assert.Equal(t, memory.SpeakerAgent, entries[1].Speaker)
	assert.Equal(t, "It's 3pm.", entries[1].Text)
}

func TestHandleMessage_NoTriggerLeavesMemoryUntouched(t *testing.T) {
	var calls atomic.Int32
	gen := provider.GeneratorFunc(func(context.Context, string, string) (string, error) {
		calls.Add(1)
		return "should not happen", nil
	})
	a := newAgent(t, gen)

	out, ok := a.HandleMessage(context.Background(), inbound("just chatting with friends"))

	assert.False(t, ok)
	assert.Empty(t, out)
	assert.Zero(t, calls.Load())
	assert.Zero(t, a.Store().Len(channel))
}

func TestHandleMessage_RateLimitFallsBackWithoutAppend(t *testing.T) {
	gen := provider.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("POST /v1/messages: 429 Too Many Requests")
	})
	a := newAgent(t, gen)

	out, ok := a.HandleMessage(context.Background(), inbound("hey ellie status"))

	require.True(t, ok)
	assert.Equal(t, finalize.FallbackRateLimited, out)
	assert.Zero(t, a.Store().Len(channel))
	assert.EqualValues(t, 1, a.Counters().Snapshot().Fallbacks)
}

func TestHandleMessage_FullMemoryEvictsOldestPair(t *testing.T) {
	const m = 4
	store := memory.NewStore(m)
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < m; i++ {
		store.Append(channel, memory.UserEntry(fmt.Sprintf("old%d", i), t0))
	}
	a := newAgent(t, reply("fresh reply"), func(o *agent.Options) { o.Store = store })

	_, ok := a.HandleMessage(context.Background(), inbound("hey ellie again"))
	require.True(t, ok)

	assert.Equal(t, m, store.Len(channel))
	want := []string{"old2", "old3", "hey ellie again", "fresh reply"}
	if diff := cmp.Diff(want, texts(store.Recent(channel, m))); diff != "" {
		t.Fatalf("memory mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleMessage_ReplyToAgentRendersAnchor(t *testing.T) {
	fetcher := platform.FetcherFunc(func(_ context.Context, _, id string) platform.FetchResult {
		if id == "prior" {
			return platform.Found(platform.Message{ID: id, AuthorID: selfID, Text: "Hold the line at B."})
		}
		return platform.NotFound()
	})
	var gotUser string
	gen := provider.GeneratorFunc(func(_ context.Context, _, user string) (string, error) {
		gotUser = user
		return "Because I said so.", nil
	})
	a := newAgent(t, gen, func(o *agent.Options) { o.Fetcher = fetcher })

	msg := inbound("why B?")
	msg.ReferencedMessageID = "prior"
	out, ok := a.HandleMessage(context.Background(), msg)

	require.True(t, ok)
	assert.Equal(t, "Because I said so.", out)
	assert.Contains(t, gotUser, "[You (Ellie) said this earlier:] Hold the line at B.")
	assert.True(t, strings.HasSuffix(gotUser, "New message:\nwhy B?"), "user turn: %q", gotUser)
}

func TestHandleMessage_HistoryIsRendered(t *testing.T) {
	var gotUser string
	gen := provider.GeneratorFunc(func(_ context.Context, _, user string) (string, error) {
		gotUser = user
		return "Noted.", nil
	})
	a := newAgent(t, gen)

	_, _ = a.HandleMessage(context.Background(), inbound("hey ellie first"))
	_, _ = a.HandleMessage(context.Background(), inbound("hey ellie second"))

	assert.Contains(t, gotUser, "Conversation so far:\nuser: hey ellie first\nEllie: Noted.\n")
	assert.True(t, strings.HasSuffix(gotUser, "New message:\nhey ellie second"))
}

func TestHandleMessage_SelfAndBotsIgnored(t *testing.T) {
	a := newAgent(t, reply("nope"))

	self := inbound("hey ellie")
	self.AuthorID = selfID
	_, ok := a.HandleMessage(context.Background(), self)
	assert.False(t, ok)

	bot := inbound("hey ellie")
	bot.AuthorID = "other-bot"
	bot.IsBot = true
	_, ok = a.HandleMessage(context.Background(), bot)
	assert.False(t, ok)

	assert.Zero(t, a.Store().Len(channel))
}

func TestHandleMessage_ReplyIsShaped(t *testing.T) {
	a := newAgent(t, reply("\n  one\n\ntwo\nthree\nfour  \n"))

	out, ok := a.HandleMessage(context.Background(), inbound("hey ellie list"))
	require.True(t, ok)
	assert.Equal(t, "one\n\ntwo", out)
	assert.Equal(t, "one\n\ntwo", a.Store().Recent(channel, 1)[0].Text)
}

func TestHandleMessage_TimeoutIsUnknown(t *testing.T) {
	gen := provider.GeneratorFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	a := newAgent(t, gen, func(o *agent.Options) { o.Timeout = 20 * time.Millisecond })

	out, ok := a.HandleMessage(context.Background(), inbound("hey ellie slow"))
	require.True(t, ok)
	assert.Equal(t, finalize.FallbackUnknown, out)
	assert.Zero(t, a.Store().Len(channel))
}

func TestHandleDirectInvocation_BypassesTrigger(t *testing.T) {
	a := newAgent(t, reply("Direct answer."))

	out := a.HandleDirectInvocation(context.Background(), channel, "no wake phrase here")

	assert.Equal(t, "Direct answer.", out)
	assert.Equal(t, []string{"no wake phrase here", "Direct answer."}, texts(a.Store().Recent(channel, 10)))
	assert.EqualValues(t, 1, a.Counters().Snapshot().Direct)
}

func TestHandleDirectInvocation_FailureFallsBack(t *testing.T) {
	gen := provider.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("401 unauthorized: invalid api key")
	})
	a := newAgent(t, gen)

	out := a.HandleDirectInvocation(context.Background(), channel, "anything")
	assert.Equal(t, finalize.FallbackUnauthorized, out)
	assert.Zero(t, a.Store().Len(channel))
}

// gatedGenerator blocks generation for texts listed in gates until the gate
// channel is closed. entered is signalled once per call after it starts.
type gatedGenerator struct {
	gates   map[string]chan struct{}
	entered chan string
	fail    map[string]error
}

func (g *gatedGenerator) Generate(ctx context.Context, _, user string) (string, error) {
	msg := user
	if i := strings.LastIndex(user, "New message:\n"); i >= 0 {
		msg = user[i+len("New message:\n"):]
	}
	g.entered <- msg
	if gate, ok := g.gates[msg]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := g.fail[msg]; err != nil {
		return "", err
	}
	return "re: " + msg, nil
}

func TestHandleMessage_CommitsInArrivalOrder(t *testing.T) {
	gate := make(chan struct{})
	gen := &gatedGenerator{
		gates:   map[string]chan struct{}{"hey ellie first": gate},
		entered: make(chan string, 4),
	}
	a := newAgent(t, gen)

	var wg sync.WaitGroup
	results := make([]string, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = a.HandleMessage(context.Background(), inbound("hey ellie first"))
	}()
	require.Equal(t, "hey ellie first", <-gen.entered)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = a.HandleMessage(context.Background(), inbound("hey ellie second"))
	}()
	require.Equal(t, "hey ellie second", <-gen.entered)

	// The second generation has finished but must not commit ahead of the first.
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, a.Store().Len(channel))

	close(gate)
	wg.Wait()

	assert.Equal(t, []string{"re: hey ellie first", "re: hey ellie second"}, results)
	want := []string{"hey ellie first", "re: hey ellie first", "hey ellie second", "re: hey ellie second"}
	if diff := cmp.Diff(want, texts(a.Store().Recent(channel, 10))); diff != "" {
		t.Fatalf("commit order mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleMessage_FailedTurnDoesNotBlockLaterTurns(t *testing.T) {
	gate := make(chan struct{})
	gen := &gatedGenerator{
		gates:   map[string]chan struct{}{"hey ellie first": gate},
		entered: make(chan string, 4),
		fail:    map[string]error{"hey ellie first": errors.New("model_not_found")},
	}
	a := newAgent(t, gen)

	var wg sync.WaitGroup
	var first, second string
	wg.Add(2)
	go func() {
		defer wg.Done()
		first, _ = a.HandleMessage(context.Background(), inbound("hey ellie first"))
	}()
	<-gen.entered
	go func() {
		defer wg.Done()
		second, _ = a.HandleMessage(context.Background(), inbound("hey ellie second"))
	}()
	<-gen.entered
	close(gate)
	wg.Wait()

	assert.Equal(t, finalize.FallbackModelUnavailable, first)
	assert.Equal(t, "re: hey ellie second", second)
	assert.Equal(t, []string{"hey ellie second", "re: hey ellie second"}, texts(a.Store().Recent(channel, 10)))
}

func TestHandleMessage_KeysDoNotBlockEachOther(t *testing.T) {
	gate := make(chan struct{})
	gen := &gatedGenerator{
		gates:   map[string]chan struct{}{"hey ellie slow": gate},
		entered: make(chan string, 4),
	}
	a := newAgent(t, gen)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.HandleMessage(context.Background(), inbound("hey ellie slow"))
	}()
	<-gen.entered

	other := inbound("hey ellie fast")
	other.ChannelID = "random"
	out, ok := a.HandleMessage(context.Background(), other)
	<-gen.entered
	require.True(t, ok)
	assert.Equal(t, "re: hey ellie fast", out)
	assert.Equal(t, 2, a.Store().Len("random"))

	close(gate)
	<-done
	assert.Equal(t, 2, a.Store().Len(channel))
}

func TestHandleMessage_MaxInFlightBoundsGeneration(t *testing.T) {
	var active, peak atomic.Int32
	gen := provider.GeneratorFunc(func(context.Context, string, string) (string, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return "ok", nil
	})
	a := newAgent(t, gen, func(o *agent.Options) { o.MaxInFlight = 2 })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := inbound("hey ellie")
			msg.ChannelID = fmt.Sprintf("c%d", i)
			_, _ = a.HandleMessage(context.Background(), msg)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.EqualValues(t, 8, a.Counters().Snapshot().Replied)
}

func TestHandleMessage_CanceledWhileWaitingCommitsNothing(t *testing.T) {
	gate := make(chan struct{})
	gen := &gatedGenerator{
		gates:   map[string]chan struct{}{"hey ellie first": gate},
		entered: make(chan string, 4),
	}
	a := newAgent(t, gen)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.HandleMessage(context.Background(), inbound("hey ellie first"))
	}()
	<-gen.entered

	ctx, cancel := context.WithCancel(context.Background())
	secondDone := make(chan string, 1)
	go func() {
		out, _ := a.HandleMessage(ctx, inbound("hey ellie second"))
		secondDone <- out
	}()
	<-gen.entered
	cancel()

	assert.Equal(t, finalize.FallbackUnknown, <-secondDone)
	close(gate)
	<-done
	assert.Equal(t, []string{"hey ellie first", "re: hey ellie first"}, texts(a.Store().Recent(channel, 10)))
}
