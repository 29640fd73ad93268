package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-live/relay-service/internal/protocol"
)

func cursorAt(x float64) protocol.ServerMessage {
	return protocol.ServerMessage{
		Type:    protocol.TypeCursorUpdate,
		Payload: protocol.CursorUpdatePayload{UserID: "u1", X: x},
	}
}

func drain(s *Subscription) []protocol.ServerMessage {
	var out []protocol.ServerMessage
	for {
		select {
		case msg := <-s.C():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestFanout_DeliversToAllSubscribers(t *testing.T) {
	f := newFanout(8)
	s1 := f.Subscribe()
	s2 := f.Subscribe()

	f.Publish(cursorAt(1))
	f.Publish(cursorAt(2))

	for _, s := range []*Subscription{s1, s2} {
		got := drain(s)
		require.Len(t, got, 2)
		assert.Equal(t, cursorAt(1), got[0])
		assert.Equal(t, cursorAt(2), got[1])
	}
}

func TestFanout_SubscriptionIsForwardOnly(t *testing.T) {
	f := newFanout(8)
	f.Publish(cursorAt(1))

	s := f.Subscribe()
	f.Publish(cursorAt(2))

	got := drain(s)
	require.Len(t, got, 1, "events published before Subscribe are never delivered")
	assert.Equal(t, cursorAt(2), got[0])
}

func TestFanout_FullBacklogDropsOldest(t *testing.T) {
	f := newFanout(2)
	slow := f.Subscribe()
	fast := f.Subscribe()

	f.Publish(cursorAt(1))
	f.Publish(cursorAt(2))
	f.Publish(cursorAt(3)) // slow reader's backlog overflows here

	got := drain(slow)
	require.Len(t, got, 2)
	assert.Equal(t, cursorAt(2), got[0], "oldest event is the one dropped")
	assert.Equal(t, cursorAt(3), got[1])

	// The fast reader was drained concurrently in real life; here it simply
	// has the same capacity, so it suffers the same drop — overflow never
	// blocks the publisher or other subscribers.
	assert.Len(t, drain(fast), 2)
}

func TestFanout_CancelStopsDelivery(t *testing.T) {
	f := newFanout(8)
	s := f.Subscribe()
	keep := f.Subscribe()

	f.Publish(cursorAt(1))
	s.Cancel()
	s.Cancel() // idempotent
	f.Publish(cursorAt(2))

	got := drain(s)
	require.Len(t, got, 1, "queued events survive Cancel, new ones do not arrive")
	assert.Len(t, drain(keep), 2)
}

func TestFanout_OrderPreservedUnderConcurrentPublishers(t *testing.T) {
	const perSender = 50
	f := newFanout(4 * perSender)
	s := f.Subscribe()

	var wg sync.WaitGroup
	for sender := 0; sender < 2; sender++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				f.Publish(protocol.ServerMessage{
					Type:    protocol.TypeCursorUpdate,
					Payload: protocol.CursorUpdatePayload{UserID: fmt.Sprintf("u%d", sender), X: float64(i)},
				})
			}
		}(sender)
	}
	wg.Wait()

	got := drain(s)
	require.Len(t, got, 2*perSender)

	// Per-sender order must survive interleaving: X values for each UserID
	// arrive strictly increasing.
	last := map[string]float64{"u0": -1, "u1": -1}
	for _, msg := range got {
		p := msg.Payload.(protocol.CursorUpdatePayload)
		assert.Greater(t, p.X, last[p.UserID])
		last[p.UserID] = p.X
	}
}
