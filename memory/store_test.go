package memory_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/ellie/memory"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func texts(entries []memory.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

func TestStore_AppendBeyondBound_EvictsOldestFirst(t *testing.T) {
	const m = 4
	s := memory.NewStore(m)
	key := memory.Key("chan-1")

	for i := 0; i <= m; i++ {
		s.Append(key, memory.UserEntry(fmt.Sprintf("m%d", i), t0.Add(time.Duration(i)*time.Second)))
	}

	require.Equal(t, m, s.Len(key))
	got := texts(s.Recent(key, m))
	want := []string{"m1", "m2", "m3", "m4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("recent mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_Recent_OrderAndTruncation(t *testing.T) {
	s := memory.NewStore(10)
	key := memory.Key("chan-1")
	for _, txt := range []string{"a", "b", "c", "d", "e"} {
		s.Append(key, memory.UserEntry(txt, t0))
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"fewer than log", 2, []string{"d", "e"}},
		{"exact", 5, []string{"a", "b", "c", "d", "e"}},
		{"more than log", 50, []string{"a", "b", "c", "d", "e"}},
		{"zero", 0, []string{}},
		{"negative", -1, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, texts(s.Recent(key, tt.n))); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_Recent_UnknownKeyIsEmpty(t *testing.T) {
	s := memory.NewStore(3)
	got := s.Recent("missing", 10)
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, s.Len("missing"))
}

func TestStore_Recent_ReturnsCopy(t *testing.T) {
	s := memory.NewStore(3)
	key := memory.Key("k")
	s.Append(key, memory.UserEntry("original", t0))

	got := s.Recent(key, 1)
	got[0].Text = "mutated"

	assert.Equal(t, "original", s.Recent(key, 1)[0].Text)
}

func TestStore_KeysAreIsolated(t *testing.T) {
	s := memory.NewStore(2)
	s.Append("a", memory.UserEntry("a1", t0))
	s.Append("b", memory.UserEntry("b1", t0))
	s.Append("a", memory.UserEntry("a2", t0))
	s.Append("a", memory.UserEntry("a3", t0))

	assert.Equal(t, []string{"a2", "a3"}, texts(s.Recent("a", 10)))
	assert.Equal(t, []string{"b1"}, texts(s.Recent("b", 10)))
}

func TestStore_AppendExchange_OverflowEvictsFrontPair(t *testing.T) {
	const m = 4
	s := memory.NewStore(m)
	key := memory.Key("k")
	s.AppendExchange(key, memory.UserEntry("u1", t0), memory.AgentEntry("a1", t0))
	s.AppendExchange(key, memory.UserEntry("u2", t0), memory.AgentEntry("a2", t0))
	require.Equal(t, m, s.Len(key))

	s.AppendExchange(key, memory.UserEntry("u3", t0), memory.AgentEntry("a3", t0))

	got := s.Recent(key, m)
	assert.Equal(t, []string{"u2", "a2", "u3", "a3"}, texts(got))
	assert.Equal(t, memory.SpeakerUser, got[2].Speaker)
	assert.Equal(t, memory.SpeakerAgent, got[3].Speaker)
}

func TestStore_NonPositiveBoundUsesDefault(t *testing.T) {
	s := memory.NewStore(0)
	assert.Equal(t, memory.DefaultMaxEntries, s.MaxEntries())
}

func TestStore_ConcurrentExchangesNeverInterleave(t *testing.T) {
	s := memory.NewStore(1000)
	key := memory.Key("shared")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendExchange(key,
				memory.UserEntry(fmt.Sprintf("u%d", i), t0),
				memory.AgentEntry(fmt.Sprintf("a%d", i), t0))
		}(i)
	}
	wg.Wait()

	got := s.Recent(key, 1000)
	require.Len(t, got, 100)
	for i := 0; i < len(got); i += 2 {
		require.Equal(t, memory.SpeakerUser, got[i].Speaker, "index %d", i)
		require.Equal(t, memory.SpeakerAgent, got[i+1].Speaker, "index %d", i+1)
		assert.Equal(t, "a"+got[i].Text[1:], got[i+1].Text, "pair split at %d", i)
	}
}
