package feed

import (
	"context"
	"math/rand"
	"time"

	"github.com/mm-engine/mmbot/internal/bus"
	"github.com/mm-engine/mmbot/pkg/types"
)

// SyntheticFeed generates a random-walk order book and trade tape for a
// symbol, used by the engine as its market data source in dry_run (paper)
// mode.
type SyntheticFeed struct {
	bus        *bus.Bus
	venue      string
	symbol     string
	basePrice  float64
	tickPeriod time.Duration
	rng        *rand.Rand
}

// NewSyntheticFeed builds a synthetic feed for venue/symbol starting
// from basePrice. rngSeed lets callers make a deterministic feed for
// tests.
func NewSyntheticFeed(b *bus.Bus, venue, symbol string, basePrice float64, tickPeriod time.Duration, rngSeed int64) *SyntheticFeed {
	if tickPeriod <= 0 {
		tickPeriod = 500 * time.Millisecond
	}
	return &SyntheticFeed{
		bus:        b,
		venue:      venue,
		symbol:     symbol,
		basePrice:  basePrice,
		tickPeriod: tickPeriod,
		rng:        rand.New(rand.NewSource(rngSeed)),
	}
}

// Run publishes snapshots and trades to store/bus until ctx is
// cancelled.
func (f *SyntheticFeed) Run(ctx context.Context, store *InMemoryFeedStore) {
	ticker := time.NewTicker(f.tickPeriod)
	defer ticker.Stop()

	mid := f.basePrice
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			drift := f.rng.Float64()*2 - 1
			mid += drift
			if mid < 1 {
				mid = 1
			}
			spread := 0.5
			if absf(drift) > spread {
				spread = absf(drift)
			}
			bidSize := 0.1 + f.rng.Float64()*0.4
			askSize := 0.1 + f.rng.Float64()*0.4

			snap := types.OrderBookSnapshot{
				Venue:     f.venue,
				Symbol:    f.symbol,
				Bids:      []types.OrderBookLevel{{Price: mid - spread/2, Size: bidSize}},
				Asks:      []types.OrderBookLevel{{Price: mid + spread/2, Size: askSize}},
				Timestamp: time.Now(),
			}
			store.UpdateSnapshot(snap)
			f.bus.Publish(bus.SnapshotTopic, snap)

			side := types.Buy
			if f.rng.Float64() < 0.5 {
				side = types.Sell
			}
			trade := types.Trade{
				Venue:     f.venue,
				Symbol:    f.symbol,
				Price:     mid + (f.rng.Float64()*spread - spread/2),
				Size:      0.01 + f.rng.Float64()*0.19,
				Side:      side,
				Timestamp: time.Now(),
			}
			f.bus.Publish(bus.TradeTopic, trade)
		}
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
