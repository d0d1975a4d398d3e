package quoter

import (
	"context"
	"testing"
	"time"

	"github.com/mm-engine/mmbot/internal/connector"
	"github.com/mm-engine/mmbot/internal/quoting"
	"github.com/mm-engine/mmbot/internal/risk"
	"github.com/mm-engine/mmbot/internal/signals"
	"github.com/mm-engine/mmbot/pkg/types"
)

func testSymbolConfig() SymbolConfig {
	return SymbolConfig{
		Symbol:        "BTC-USDT",
		Venue:         "test-venue",
		TickSize:      0.01,
		LotSize:       0.01,
		MakerFeeBps:   1,
		TakerFeeBps:   5,
		RefreshPeriod: time.Second,
	}
}

func testBook() types.OrderBookSnapshot {
	return types.OrderBookSnapshot{
		Venue:  "test-venue",
		Symbol: "BTC-USDT",
		Bids:   []types.OrderBookLevel{{Price: 99.99, Size: 10}},
		Asks:   []types.OrderBookLevel{{Price: 100.01, Size: 10}},
	}
}

func newTestQuoter() (*Quoter, *connector.PaperConnector) {
	book := testBook()
	conn := connector.NewPaperConnector("test-venue", 0, func(symbol string) (types.OrderBookSnapshot, bool) {
		return book, true
	})
	model := quoting.NewModel(0.1, 1.0, 1.5, 0.01, 0.5)
	riskLimits := risk.NewRiskLimits(
		map[string]risk.SymbolLimits{"BTC-USDT": {MaxPosition: 100, MaxOrderNotional: 100000, MaxOrders: 10, AccountNotionalCap: 1000000}},
		risk.AccountLimits{MaxOpenOrders: 100},
	)
	q := New(testSymbolConfig(), conn, model, riskLimits,
		signals.NewMicrostructureSignals(), signals.NewVolatilityEstimator(100), signals.NewImpactEstimator(),
		nil, nil, nil, nil)
	return q, conn
}

func TestTickGeneratesAndPlacesQuotes(t *testing.T) {
	t.Parallel()
	q, conn := newTestQuoter()
	q.micro.UpdateSnapshot(testBook())

	quote, _, err := q.Tick(context.Background(), testBook())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Bid >= quote.Ask {
		t.Errorf("expected bid < ask, got bid=%v ask=%v", quote.Bid, quote.Ask)
	}

	orders, _ := conn.ListOpenOrders(context.Background(), "BTC-USDT")
	if len(orders) != 2 {
		t.Fatalf("expected 2 resting orders (bid+ask), got %d", len(orders))
	}
}

func TestTickHaltsWhenRiskHalted(t *testing.T) {
	t.Parallel()
	q, _ := newTestQuoter()
	q.micro.UpdateSnapshot(testBook())
	q.risk.RecordFill("BTC-USDT", 1000, 100) // exceeds max_position 100, halts the symbol

	quote, _, err := q.Tick(context.Background(), testBook())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote != (quoting.Quote{}) {
		t.Errorf("expected zero-value quote when halted, got %+v", quote)
	}
	if q.State() != StateHalted {
		t.Errorf("expected state Halted, got %v", q.State())
	}
}

func TestApplyFillOpeningLongPosition(t *testing.T) {
	t.Parallel()
	q, _ := newTestQuoter()

	realized := q.applyFill(types.Fill{Side: types.Buy, Price: 100, Size: 2})
	if realized != 0 {
		t.Errorf("expected 0 realized on opening fill, got %v", realized)
	}
	if q.Inventory() != 2 {
		t.Errorf("expected inventory 2, got %v", q.Inventory())
	}
}

func TestApplyFillClosingRealizesPnL(t *testing.T) {
	t.Parallel()
	q, _ := newTestQuoter()

	q.applyFill(types.Fill{Side: types.Buy, Price: 100, Size: 2})
	realized := q.applyFill(types.Fill{Side: types.Sell, Price: 110, Size: 2})

	if realized != 20 {
		t.Errorf("expected realized PnL 20 (bought at 100, sold at 110, size 2), got %v", realized)
	}
	if q.Inventory() != 0 {
		t.Errorf("expected flat inventory after closing, got %v", q.Inventory())
	}
}

func TestTerminateCancelsAllOrders(t *testing.T) {
	t.Parallel()
	q, conn := newTestQuoter()
	q.micro.UpdateSnapshot(testBook())
	q.Tick(context.Background(), testBook())

	q.Terminate(context.Background())

	orders, _ := conn.ListOpenOrders(context.Background(), "BTC-USDT")
	if len(orders) != 0 {
		t.Errorf("expected no open orders after terminate, got %d", len(orders))
	}
	if q.State() != StateTerminated {
		t.Errorf("expected state Terminated, got %v", q.State())
	}
}
