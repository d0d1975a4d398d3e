// Package bus implements a small in-process publish/subscribe event bus.
// Subscribers are invoked concurrently for each published event, mirroring
// the fan-out dispatch the engine uses to route book/trade/fill events to
// every interested signal and strategy component.
package bus

import (
	"sync"
)

const (
	SnapshotTopic = "snapshot"
	TradeTopic    = "trade"
	FillTopic     = "fill"
)

// Handler receives a published event. The handlers for one event run
// concurrently with each other and must not block indefinitely: Publish
// returns only after every handler has finished, so a slow handler delays
// the publisher and anything it publishes next.
type Handler func(event interface{})

// Bus fans out published events to all subscribers of a topic.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], h)
}

// Publish fans an event out to every subscriber of topic and waits for
// all of them to finish processing it.
func (b *Bus) Publish(topic string, event interface{}) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(handlers))
	for _, h := range handlers {
		h := h
		go func() {
			defer wg.Done()
			h(event)
		}()
	}
	wg.Wait()
}
