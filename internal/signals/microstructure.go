// Package signals computes the microstructure, volatility, and impact
// features that feed the Avellaneda-Stoikov quoting model.
package signals

import (
	"sync"

	"github.com/mm-engine/mmbot/pkg/types"
)

const ofiAlpha = 0.3

// MicrostructureFeature is the latest feature set for one symbol.
type MicrostructureFeature struct {
	Microprice        float64
	QueueImbalance    float64
	OrderFlowImbalance float64
}

// MicrostructureSignals tracks microprice/queue-imbalance/order-flow-
// imbalance per symbol from order book snapshots and trade prints.
type MicrostructureSignals struct {
	mu       sync.Mutex
	features map[string]*MicrostructureFeature
	lastBook map[string]types.OrderBookSnapshot
}

// NewMicrostructureSignals creates an empty tracker.
func NewMicrostructureSignals() *MicrostructureSignals {
	return &MicrostructureSignals{
		features: make(map[string]*MicrostructureFeature),
		lastBook: make(map[string]types.OrderBookSnapshot),
	}
}

// UpdateSnapshot recomputes microprice and queue imbalance for a book.
func (m *MicrostructureSignals) UpdateSnapshot(snap types.OrderBookSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.getOrCreateLocked(snap.Symbol)
	f.Microprice = computeMicroprice(snap)
	f.QueueImbalance = computeQueueImbalance(snap)
	m.lastBook[snap.Symbol] = snap
}

// UpdateTrade folds a trade print into the order-flow-imbalance EWMA.
// Buy-initiated trades push OFI positive, sell-initiated push it negative.
func (m *MicrostructureSignals) UpdateTrade(tr types.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.getOrCreateLocked(tr.Symbol)
	signed := tr.Size
	if tr.Side == types.Sell {
		signed = -signed
	}
	f.OrderFlowImbalance = ewma(f.OrderFlowImbalance, normalizeFlow(signed), ofiAlpha)
}

// Get returns the current feature set for a symbol (zero value if unseen).
func (m *MicrostructureSignals) Get(symbol string) MicrostructureFeature {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.features[symbol]; ok {
		return *f
	}
	return MicrostructureFeature{}
}

func (m *MicrostructureSignals) getOrCreateLocked(symbol string) *MicrostructureFeature {
	f, ok := m.features[symbol]
	if !ok {
		f = &MicrostructureFeature{}
		m.features[symbol] = f
	}
	return f
}

// computeMicroprice weights best bid/ask by the opposite side's size —
// the side with more resting size pulls the microprice toward it less,
// since it represents the price at which that side is about to be
// consumed (standard microprice definition).
func computeMicroprice(snap types.OrderBookSnapshot) float64 {
	bid, ask, ok := snap.BestBidAsk()
	if !ok {
		return 0
	}
	bidSize := snap.Bids[0].Size
	askSize := snap.Asks[0].Size
	total := bidSize + askSize
	if total <= 0 {
		return (bid + ask) / 2
	}
	return (bid*askSize + ask*bidSize) / total
}

func computeQueueImbalance(snap types.OrderBookSnapshot) float64 {
	if len(snap.Bids) == 0 || len(snap.Asks) == 0 {
		return 0
	}
	bidSize := snap.Bids[0].Size
	askSize := snap.Asks[0].Size
	total := bidSize + askSize
	if total <= 0 {
		return 0
	}
	return (bidSize - askSize) / total
}

// normalizeFlow squashes a signed trade size into roughly [-1, 1] using
// a soft saturation so that one large print cannot dominate the EWMA.
func normalizeFlow(signed float64) float64 {
	if signed == 0 {
		return 0
	}
	abs := signed
	if abs < 0 {
		abs = -abs
	}
	normalized := abs / (abs + 1)
	if signed < 0 {
		return -normalized
	}
	return normalized
}

func ewma(prev, sample, alpha float64) float64 {
	return alpha*sample + (1-alpha)*prev
}
