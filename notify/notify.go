// Package notify carries song change notifications from the model to
// whoever renders it. The model publishes, views subscribe.
package notify

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

type ChangeKind uint8

const (
	Cleared ChangeKind = iota + 1
	Imported
	TrackSelected
	EventsUnselected
	EventEdited
)

func (k ChangeKind) String() string {
	switch k {
	case Cleared:
		return "cleared"
	case Imported:
		return "imported"
	case TrackSelected:
		return "track-selected"
	case EventsUnselected:
		return "events-unselected"
	case EventEdited:
		return "event-edited"
	}
	return "unknown"
}

// Change tells subscribers what to redraw. Track and Event are -1 when the
// change is not about a single track or event.
type Change struct {
	SongID string
	Kind   ChangeKind
	Track  int
	Event  int
}

const subscriberBuffer = 64

type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	next   int
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Change)}
}

// Subscribe returns a channel of changes and a func to stop receiving.
func (b *Broker) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Change, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish never blocks. A subscriber that is behind misses the change, it
// still has older undelivered ones that trigger the same redraw.
func (b *Broker) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (b *Broker) NumSubscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Debounced calls fn with the latest change once ch has been quiet for
// after. It returns when ch is closed.
func Debounced(ch <-chan Change, after time.Duration, fn func(Change)) {
	debounced := debounce.New(after)
	for c := range ch {
		c := c
		debounced(func() { fn(c) })
	}
}
