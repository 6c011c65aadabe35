// Package events is the in-process notification bus the client uses to tell the
// rest of the application about session expiry, feature gates and entitlement
// changes. Consumers register explicitly; nothing is global.
package events

import (
	"sync"
	"time"
)

// Type identifies a notification.
type Type string

const (
	AuthExpired     Type = "auth-expired"
	UpgradeRequired Type = "upgrade-required"
	FreemiumChanged Type = "freemium-state-changed"
	LocalDBChanged  Type = "local-db-changed"
)

// AuthExpiredPayload accompanies AuthExpired.
type AuthExpiredPayload struct {
	UserID string
	URL    string
}

// UpgradeRequiredPayload accompanies UpgradeRequired.
type UpgradeRequiredPayload struct {
	Feature string
	Message string
}

// LocalDBChangedPayload accompanies LocalDBChanged.
type LocalDBChangedPayload struct {
	Key string
}

// Event is a single notification. Payload holds one of the *Payload types of
// this package, or a freemium.State for FreemiumChanged.
type Event struct {
	Type      Type
	Timestamp time.Time
	Payload   any
}

// Bus is a fan-out pub/sub bus. Subscribers receive events on a buffered
// channel; publishing never blocks, a full subscriber misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]map[Type]bool // nil filter = all types
}

func New() *Bus {
	return &Bus{subs: make(map[chan Event]map[Type]bool)}
}

// Subscribe returns a channel receiving events of the given types, or of every
// type when none are given. The channel is buffered (64).
func (b *Bus) Subscribe(types ...Type) chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(types) == 0 {
		b.subs[ch] = nil
		return ch
	}
	filter := make(map[Type]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}
	b.subs[ch] = filter
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish delivers e to every matching subscriber. A nil Bus drops the event.
func (b *Bus) Publish(t Type, payload any) {
	if b == nil {
		return
	}
	e := Event{Type: t, Timestamp: time.Now(), Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, filter := range b.subs {
		if filter != nil && !filter[t] {
			continue
		}
		select {
		case ch <- e:
		default:
			// slow subscriber, drop
		}
	}
}

// Close unsubscribes everyone.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
