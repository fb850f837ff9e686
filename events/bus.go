// events/bus.go
package events

import (
	"log"
	"sync"
)

// Handler receives one event. Returned errors are logged, never propagated
// to the publisher.
type Handler func(Event) error

// Bus is a process-wide typed fan-out. Handlers are registered once at
// startup; Publish dispatches each handler on its own goroutine so a slow
// or failing listener cannot block the caller or undo the state change
// that triggered the event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish attempts every handler registered for the event's type. No
// ordering across handlers; zero handlers is a no-op.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	hs := b.handlers[e.EventType()]
	b.mu.RUnlock()

	for _, h := range hs {
		b.wg.Add(1)
		go b.dispatch(h, e)
	}
}

func (b *Bus) dispatch(h Handler, e Event) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[events] handler panic on %s: %v", e.EventType(), r)
		}
	}()
	if err := h(e); err != nil {
		log.Printf("[events] handler error on %s: %v", e.EventType(), err)
	}
}

// Wait blocks until all handlers dispatched so far have finished. Used on
// shutdown and in tests.
func (b *Bus) Wait() { b.wg.Wait() }
