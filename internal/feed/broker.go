package feed

import (
	"sync"
	"time"

	"github.com/jizzpi-arm/book-deposit-api/internal/models"
)

// Snapshot carries the full current state of the submissions collection,
// newest submittedAt first. Subscribers replace their entire view on every
// message; the feed never delivers deltas.
type Snapshot struct {
	Submissions []models.BookSubmission `json:"submissions"`
	At          time.Time               `json:"at"`
}

// Broker fans snapshots out to independent subscribers. The store is the
// sole publisher. A slow subscriber never blocks Publish: each subscriber
// holds a one-slot buffer and intermediate snapshots are coalesced, latest
// wins.
type Broker struct {
	mu   sync.Mutex
	subs map[int]chan Snapshot
	next int
	last *Snapshot
}

// NewBroker constructs an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Snapshot)}
}

// Subscribe registers a new observer. The returned channel immediately
// yields the last published snapshot, if any. The unsubscribe func must be
// called when the consumer stops observing; it releases the subscription
// and closes the channel.
func (b *Broker) Subscribe() (<-chan Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Snapshot, 1)
	if b.last != nil {
		ch <- *b.last
	}
	b.subs[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Publish delivers the snapshot to every active subscriber.
func (b *Broker) Publish(snap Snapshot) {
	if snap.At.IsZero() {
		snap.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = &snap
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot, keep the fresh one.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// Subscribers returns the number of active observers.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
