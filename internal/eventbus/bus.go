package eventbus

import (
	"sync"

	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// Handler is a function that receives inbound plugin messages
type Handler func(event models.InboundEvent)

// Bus is an in-process pub/sub channel for plugin messages.
// Delivery is synchronous: handlers run one event at a time, in subscribe
// order, and events reach them in publish order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler

	deliver sync.Mutex
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		handlers: make([]Handler, 0),
	}
}

// Subscribe registers a handler for all events
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish hands an event to every subscriber and returns once all have run.
// Concurrent publishers are serialized.
func (b *Bus) Publish(event models.InboundEvent) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	b.deliver.Lock()
	defer b.deliver.Unlock()
	for _, h := range handlers {
		h(event)
	}
}
