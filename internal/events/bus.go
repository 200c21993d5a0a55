// Package events is an in-process pub/sub used to fan out schedule changes.
package events

import (
	"sync"
	"time"
)

// Type names an event.
type Type string

const (
	ScheduleChanged Type = "schedule.changed"
	SettingsChanged Type = "settings.changed"
	CatalogChanged  Type = "catalog.changed"
)

// Event is a lightweight domain event.
type Event struct {
	Type      Type
	Dates     []string // affected schedule dates, if any
	UserID    int64
	Source    string
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(Event)

// Bus delivers events synchronously to subscribers of their type.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type]map[int]Handler
	nextID      int
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[Type]map[int]Handler)}
}

// Subscribe registers h for t and returns a function that removes it.
func (b *Bus) Subscribe(t Type, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[t] == nil {
		b.subscribers[t] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subscribers[t][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers[t], id)
	}
}

// Publish notifies subscribers of the event type. Handlers run on the
// caller's goroutine.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[ev.Type]))
	for _, h := range b.subscribers[ev.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	for _, h := range handlers {
		h(ev)
	}
}
