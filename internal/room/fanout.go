// Package room owns every live room: the registry that maps room IDs to
// member sets and the fan-out channels that carry broadcast events between
// connections.
package room

import (
	"sync"

	"github.com/synapse-live/relay-service/internal/protocol"
)

// Fanout is a room's broadcast channel: one Publish is delivered to every
// current subscription independently. Publishing is serialized under the
// fan-out mutex, so all subscribers observe events in the same order.
//
// Publish never blocks. Each subscription has a bounded backlog; when a slow
// reader fills it, the oldest undelivered event is dropped for that reader
// only. Backpressure is absorbed per subscriber, not propagated.
type Fanout struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	backlog int
}

func newFanout(backlog int) *Fanout {
	if backlog <= 0 {
		backlog = 1
	}
	return &Fanout{
		subs:    make(map[*Subscription]struct{}),
		backlog: backlog,
	}
}

// Publish delivers msg to every current subscription, best-effort.
func (f *Fanout) Publish(msg protocol.ServerMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for s := range f.subs {
		s.push(msg)
	}
}

// Subscribe attaches a fresh forward-only cursor to the channel: only events
// published after this call are delivered to it.
func (f *Fanout) Subscribe() *Subscription {
	s := &Subscription{
		fan: f,
		ch:  make(chan protocol.ServerMessage, f.backlog),
	}

	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	return s
}

// Subscription is one reader's view of a room's fan-out channel. A connection
// session holds it for its whole lifetime; the channel handle stays valid even
// after the room entry is removed from the registry.
type Subscription struct {
	fan  *Fanout
	ch   chan protocol.ServerMessage
	once sync.Once
}

// C returns the receive side of the subscription's backlog.
func (s *Subscription) C() <-chan protocol.ServerMessage {
	return s.ch
}

// Cancel detaches the subscription from the channel. Safe to call more than
// once. The backlog channel is not closed: a concurrent reader keeps draining
// whatever was already queued.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.fan.mu.Lock()
		delete(s.fan.subs, s)
		s.fan.mu.Unlock()
	})
}

// push enqueues msg, evicting the oldest queued event when the backlog is
// full. Called with the fan-out mutex held, so there is a single producer per
// channel and the loop always terminates.
func (s *Subscription) push(msg protocol.ServerMessage) {
	for {
		select {
		case s.ch <- msg:
			return
		default:
		}
		select {
		case <-s.ch: // drop oldest
		default:
		}
	}
}
