package memory

import (
	"sync"
	"time"
)

// Key identifies an isolated memory scope, one per chat channel.
type Key string

// Speaker is the author side of an Entry.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Entry is a single remembered utterance.
type Entry struct {
	Speaker   Speaker
	Text      string
	Timestamp time.Time
}

// UserEntry and AgentEntry are small constructors used by the finalizer and tests.
func UserEntry(text string, at time.Time) Entry {
	return Entry{Speaker: SpeakerUser, Text: text, Timestamp: at}
}

func AgentEntry(text string, at time.Time) Entry {
	return Entry{Speaker: SpeakerAgent, Text: text, Timestamp: at}
}

// DefaultMaxEntries is used when NewStore is given a non-positive bound.
const DefaultMaxEntries = 20

// Store keeps the bounded logs for all conversation keys.
// It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	maxEntries int
	logs       map[Key][]Entry
}

func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		maxEntries: maxEntries,
		logs:       make(map[Key][]Entry),
	}
}

// MaxEntries reports the per-key bound M.
func (s *Store) MaxEntries() int { return s.maxEntries }

// Append adds entry to the end of the log for key, evicting from the front
// until the log is back within bounds.
func (s *Store) Append(key Key, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(key, entry)
}

// AppendExchange appends a user entry followed by an agent entry under a single
// lock so that no other append can land between them.
func (s *Store) AppendExchange(key Key, user, agent Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(key, user)
	s.appendLocked(key, agent)
}

func (s *Store) appendLocked(key Key, entry Entry) {
	log := append(s.logs[key], entry)
	if over := len(log) - s.maxEntries; over > 0 {
		// Copy down instead of reslicing so evicted entries are not pinned
		// by the backing array forever.
		n := copy(log, log[over:])
		clear(log[n:])
		log = log[:n]
	}
	s.logs[key] = log
}

// Recent returns the last n entries for key in insertion order. The result is a
// copy; callers may keep it. n <= 0 or an unknown key yields an empty slice.
func (s *Store) Recent(key Key, n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[key]
	if n <= 0 || len(log) == 0 {
		return []Entry{}
	}
	if n > len(log) {
		n = len(log)
	}
	out := make([]Entry, n)
	copy(out, log[len(log)-n:])
	return out
}

// Len returns the current number of entries held for key.
func (s *Store) Len(key Key) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[key])
}
