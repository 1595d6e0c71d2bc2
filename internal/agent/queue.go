package agent

import (
	"context"
	"sync"

	"github.com/petasbytes/ellie/memory"
)

// turnQueue orders commits per key by arrival. Each ticket closes its own
// channel once its predecessor has closed and it has released.
type turnQueue struct {
	mu    sync.Mutex
	tails map[memory.Key]chan struct{}
}

func newTurnQueue() *turnQueue {
	return &turnQueue{tails: make(map[memory.Key]chan struct{})}
}

type ticket struct {
	q    *turnQueue
	key  memory.Key
	prev <-chan struct{} // nil for the first ticket of an idle key
	mine chan struct{}
	once sync.Once
}

// acquire registers a new turn for key behind every earlier turn.
func (q *turnQueue) acquire(key memory.Key) *ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := &ticket{q: q, key: key, prev: q.tails[key], mine: make(chan struct{})}
	q.tails[key] = t.mine
	return t
}

// pending reports how many keys still have an unreleased tail.
func (q *turnQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tails)
}

// wait blocks until every earlier turn for the key has released.
func (t *ticket) wait(ctx context.Context) error {
	if t.prev == nil {
		return nil
	}
	select {
	case <-t.prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release lets the next turn proceed once this turn's predecessor is done.
// It is safe to call more than once and never blocks.
func (t *ticket) release() {
	t.once.Do(func() {
		if t.prev == nil {
			t.finish()
			return
		}
		select {
		case <-t.prev:
			t.finish()
		default:
			go func() {
				<-t.prev
				t.finish()
			}()
		}
	})
}

func (t *ticket) finish() {
	t.q.mu.Lock()
	if t.q.tails[t.key] == t.mine {
		delete(t.q.tails, t.key)
	}
	t.q.mu.Unlock()
	close(t.mine)
}
