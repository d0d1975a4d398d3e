package connector

import (
	"context"
	"testing"

	"github.com/mm-engine/mmbot/pkg/types"
)

func testBook(symbol string, bid, ask float64) types.OrderBookSnapshot {
	return types.OrderBookSnapshot{
		Symbol: symbol,
		Bids:   []types.OrderBookLevel{{Price: bid, Size: 10}},
		Asks:   []types.OrderBookLevel{{Price: ask, Size: 10}},
	}
}

func newTestPaperConnector(bid, ask float64) *PaperConnector {
	return NewPaperConnector("test-venue", 0.0004, func(symbol string) (types.OrderBookSnapshot, bool) {
		return testBook(symbol, bid, ask), true
	})
}

func TestPaperConnectorPlaceAndListOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestPaperConnector(99, 101)

	id, err := c.PlaceOrder(ctx, types.Order{Symbol: "BTC-USDT", Side: types.Buy, Price: 98, Quantity: 1})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty order id")
	}

	orders, err := c.ListOpenOrders(ctx, "BTC-USDT")
	if err != nil {
		t.Fatalf("list open orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 open order, got %d", len(orders))
	}
}

func TestPaperConnectorCrossFillsMarketableOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestPaperConnector(99, 101)

	_, err := c.PlaceOrder(ctx, types.Order{Symbol: "BTC-USDT", Side: types.Buy, Price: 102, Quantity: 1})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	c.Cross("BTC-USDT")

	fills, err := c.PollFills(ctx)
	if err != nil {
		t.Fatalf("poll fills: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(fills))
	}
	if fills[0].Price != 101 {
		t.Errorf("expected fill price 101 (best ask), got %v", fills[0].Price)
	}

	orders, _ := c.ListOpenOrders(ctx, "BTC-USDT")
	if len(orders) != 0 {
		t.Errorf("expected order removed after fill, got %d remaining", len(orders))
	}
}

func TestPaperConnectorCrossDoesNotFillNonMarketableOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestPaperConnector(99, 101)

	_, err := c.PlaceOrder(ctx, types.Order{Symbol: "BTC-USDT", Side: types.Buy, Price: 98, Quantity: 1})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	c.Cross("BTC-USDT")

	fills, _ := c.PollFills(ctx)
	if len(fills) != 0 {
		t.Errorf("expected no fills for a resting order below the ask, got %d", len(fills))
	}
}

func TestPaperConnectorCancelOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestPaperConnector(99, 101)

	id, _ := c.PlaceOrder(ctx, types.Order{Symbol: "BTC-USDT", Side: types.Buy, Price: 98, Quantity: 1})
	if err := c.CancelOrder(ctx, "BTC-USDT", id); err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	orders, _ := c.ListOpenOrders(ctx, "BTC-USDT")
	if len(orders) != 0 {
		t.Errorf("expected order cancelled, got %d remaining", len(orders))
	}
}

func TestUnsupportedConnectorReturnsErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	u := &UnsupportedConnector{Venue: "some-dex"}

	if _, err := u.PlaceOrder(ctx, types.Order{}); err == nil {
		t.Error("expected error from PlaceOrder")
	}
	if err := u.CancelOrder(ctx, "BTC-USDT", "x"); err == nil {
		t.Error("expected error from CancelOrder")
	}
	if _, err := u.FetchBalance(ctx, "USDT"); err == nil {
		t.Error("expected error from FetchBalance")
	}
}
