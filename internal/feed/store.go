// Package feed keeps the latest market data per symbol and supplies two
// feed implementations: a synthetic random-walk feed for paper trading,
// and a live websocket feed for venue connectivity.
package feed

import (
	"sync"

	"github.com/mm-engine/mmbot/pkg/types"
)

// InMemoryFeedStore holds the latest snapshot per symbol, safe for
// concurrent reads from multiple slots and writes from one feed
// goroutine per symbol.
type InMemoryFeedStore struct {
	mu        sync.RWMutex
	snapshots map[string]types.OrderBookSnapshot
}

// NewInMemoryFeedStore creates an empty store.
func NewInMemoryFeedStore() *InMemoryFeedStore {
	return &InMemoryFeedStore{snapshots: make(map[string]types.OrderBookSnapshot)}
}

// UpdateSnapshot replaces the latest snapshot for its symbol.
func (s *InMemoryFeedStore) UpdateSnapshot(snap types.OrderBookSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Symbol] = snap
}

// GetSnapshot returns the latest snapshot for symbol, if any.
func (s *InMemoryFeedStore) GetSnapshot(symbol string) (types.OrderBookSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[symbol]
	return snap, ok
}
