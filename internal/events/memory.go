package events

import (
	"context"
	"sync"
)

// Handler receives payloads published on a subscribed topic.
type Handler func(ctx context.Context, topic string, payload any)

// MemoryBroadcaster is a synchronous in-process broadcaster. It backs tests
// and single-process deployments that have no Redis.
type MemoryBroadcaster struct {
	mu        sync.RWMutex
	listeners map[string][]Handler
}

// NewMemoryBroadcaster creates an empty broadcaster.
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{listeners: make(map[string][]Handler)}
}

// Publish synchronously invokes handlers subscribed to the topic.
func (b *MemoryBroadcaster) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	handlers := append([]Handler{}, b.listeners[topic]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, topic, payload)
	}
	return nil
}

// Subscribe registers a handler for the given topic.
func (b *MemoryBroadcaster) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[topic] = append(b.listeners[topic], handler)
}
