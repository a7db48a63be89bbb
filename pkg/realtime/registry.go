package realtime

import (
	"sync"

	"github.com/sinditur/odonto/pkg/domain"
)

// Handler receives one event. Handlers for the same event name are invoked
// in subscription order; every registered handler sees every event (fan-out,
// not competing consumers).
type Handler func(ev domain.Event)

type subscriber struct {
	id int
	fn Handler
}

// registry maps event names to ordered subscriber lists. It is safe for
// concurrent use: screens subscribe from the UI loop while the connection's
// read loop dispatches.
type registry struct {
	mu     sync.Mutex
	subs   map[string][]subscriber
	nextID int
}

func newRegistry() *registry {
	return &registry{subs: make(map[string][]subscriber)}
}

// subscribe registers fn for the named event and returns an idempotent
// unsubscribe function. Removing one subscriber never disturbs the others.
func (r *registry) subscribe(event string, fn Handler) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs[event] = append(r.subs[event], subscriber{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		list := r.subs[event]
		for i := range list {
			if list[i].id == id {
				r.subs[event] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// dispatch delivers ev to every subscriber of ev.Type, in subscription
// order. Handlers run outside the lock so they may subscribe or unsubscribe
// without deadlocking.
func (r *registry) dispatch(ev domain.Event) {
	r.mu.Lock()
	list := r.subs[ev.Type]
	snapshot := make([]subscriber, len(list))
	copy(snapshot, list)
	r.mu.Unlock()

	for _, s := range snapshot {
		s.fn(ev)
	}
}
