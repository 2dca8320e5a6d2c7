package order

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// EventType enumerates the order transitions broadcast to subscribers.
type EventType string

const (
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
)

// Event describes one completed or cancelled order transition.
type Event struct {
	Type    EventType
	OrderID string
	Total   decimal.Decimal
	At      time.Time
}

// Notifier broadcasts order transitions to registered subscribers. Reporting
// and notification consumers subscribe explicitly instead of listening on a
// global event bus.
type Notifier struct {
	mu   sync.RWMutex
	subs []func(Event)
}

// NewNotifier returns a Notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a callback invoked for every published event.
// Callbacks run synchronously on the publishing goroutine and must not block.
func (n *Notifier) Subscribe(fn func(Event)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

// Publish delivers the event to every subscriber.
func (n *Notifier) Publish(e Event) {
	n.mu.RLock()
	subs := n.subs
	n.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}
