package signals

import (
	"math"
	"testing"
	"time"

	"github.com/mm-engine/mmbot/pkg/types"
)

func book(symbol string, bid, bidSize, ask, askSize float64) types.OrderBookSnapshot {
	return types.OrderBookSnapshot{
		Symbol: symbol,
		Bids:   []types.OrderBookLevel{{Price: bid, Size: bidSize}},
		Asks:   []types.OrderBookLevel{{Price: ask, Size: askSize}},
	}
}

func TestMicropriceBalancedBookEqualsMid(t *testing.T) {
	t.Parallel()
	m := NewMicrostructureSignals()
	m.UpdateSnapshot(book("BTC", 99, 10, 101, 10))

	f := m.Get("BTC")
	if math.Abs(f.Microprice-100) > 1e-9 {
		t.Errorf("microprice = %v, want 100", f.Microprice)
	}
}

func TestMicropriceSkewsTowardThinnerSide(t *testing.T) {
	t.Parallel()
	m := NewMicrostructureSignals()
	// Heavy bid size should pull microprice toward the ask (thin side gets consumed first).
	m.UpdateSnapshot(book("BTC", 99, 100, 101, 1))

	f := m.Get("BTC")
	if f.Microprice <= 100 {
		t.Errorf("microprice = %v, want > mid 100 when bid size dominates", f.Microprice)
	}
}

func TestQueueImbalanceSign(t *testing.T) {
	t.Parallel()
	m := NewMicrostructureSignals()
	m.UpdateSnapshot(book("BTC", 99, 10, 101, 2))

	f := m.Get("BTC")
	if f.QueueImbalance <= 0 {
		t.Errorf("queue imbalance = %v, want > 0 when bid size dominates", f.QueueImbalance)
	}
}

func TestOrderFlowImbalanceEWMA(t *testing.T) {
	t.Parallel()
	m := NewMicrostructureSignals()
	m.UpdateTrade(types.Trade{Symbol: "BTC", Side: types.Buy, Size: 5})
	f := m.Get("BTC")
	if f.OrderFlowImbalance <= 0 {
		t.Errorf("OFI = %v, want > 0 after buy trade", f.OrderFlowImbalance)
	}
}

func TestVolatilitySigmaZeroUntilTwoReturns(t *testing.T) {
	t.Parallel()
	v := NewVolatilityEstimator(100)
	v.Update(book("BTC", 99, 1, 101, 1))
	if got := v.Sigma("BTC"); got != 0 {
		t.Errorf("sigma = %v, want 0 with <2 returns", got)
	}
}

func TestVolatilitySigmaPositiveAfterMoves(t *testing.T) {
	t.Parallel()
	v := NewVolatilityEstimator(100)
	mids := []float64{100, 101, 99, 102, 98}
	for _, mid := range mids {
		v.Update(book("BTC", mid-1, 1, mid+1, 1))
	}
	if got := v.Sigma("BTC"); got <= 0 {
		t.Errorf("sigma = %v, want > 0", got)
	}
}

func TestImpactEstimatorIgnoresNearZeroVolume(t *testing.T) {
	t.Parallel()
	e := NewImpactEstimator()
	e.Update(types.Trade{Symbol: "BTC", Side: types.Buy, Size: 1e-12, Timestamp: time.Now()}, 0.01)
	if got := e.Lambda("BTC"); got != 0 {
		t.Errorf("lambda = %v, want 0 for near-zero volume trade", got)
	}
}

func TestImpactEstimatorAccumulates(t *testing.T) {
	t.Parallel()
	e := NewImpactEstimator()
	e.Update(types.Trade{Symbol: "BTC", Side: types.Buy, Size: 1}, 0.01)
	if got := e.Lambda("BTC"); got == 0 {
		t.Error("expected nonzero lambda after a trade with signal")
	}
}

func TestIntensityStubFloorsAtBaseline(t *testing.T) {
	t.Parallel()
	h := NewIntensityStub(HawkesParams{Baseline: 0})
	if got := h.Intensity(); got <= 0 {
		t.Errorf("intensity = %v, want > 0 floor", got)
	}
}
