package metrics

import "sync/atomic"

// Counters tracks per-process turn outcomes. The zero value is ready to use
// and all methods are safe for concurrent use.
type Counters struct {
	received  atomic.Int64
	triggered atomic.Int64
	replied   atomic.Int64
	fallbacks atomic.Int64
	direct    atomic.Int64
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Received  int64 `json:"received"`
	Triggered int64 `json:"triggered"`
	Replied   int64 `json:"replied"`
	Fallbacks int64 `json:"fallbacks"`
	Direct    int64 `json:"direct"`
}

func (c *Counters) MessageReceived()  { c.received.Add(1) }
func (c *Counters) TurnTriggered()    { c.triggered.Add(1) }
func (c *Counters) DirectInvocation() { c.direct.Add(1) }

// ReplySent records an outbound reply; fallback marks replies that carry a
// fixed failure message instead of generated text.
func (c *Counters) ReplySent(fallback bool) {
	c.replied.Add(1)
	if fallback {
		c.fallbacks.Add(1)
	}
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Received:  c.received.Load(),
		Triggered: c.triggered.Load(),
		Replied:   c.replied.Load(),
		Fallbacks: c.fallbacks.Load(),
		Direct:    c.direct.Load(),
	}
}
