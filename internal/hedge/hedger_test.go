package hedge

import (
	"context"
	"testing"
	"time"

	"github.com/mm-engine/mmbot/pkg/types"
)

// fakeConnector immediately fills every order it's given, at the
// order's own price.
type fakeConnector struct {
	nextID int
	fills  []types.Fill
}

func (f *fakeConnector) PlaceOrder(ctx context.Context, order types.Order) (string, error) {
	f.nextID++
	id := "fake-order"
	f.fills = append(f.fills, types.Fill{
		OrderID: id,
		Symbol:  order.Symbol,
		Side:    order.Side,
		Price:   order.Price,
		Size:    order.Quantity,
	})
	return id, nil
}

func (f *fakeConnector) CancelOrder(ctx context.Context, symbol, orderID string) error { return nil }
func (f *fakeConnector) CancelAll(ctx context.Context, symbol string) error            { return nil }
func (f *fakeConnector) ListOpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	return nil, nil
}
func (f *fakeConnector) PollFills(ctx context.Context) ([]types.Fill, error) {
	fills := f.fills
	f.fills = nil
	return fills, nil
}
func (f *fakeConnector) FetchBalance(ctx context.Context, asset string) (float64, error) {
	return 0, nil
}

func testBook() types.OrderBookSnapshot {
	return types.OrderBookSnapshot{
		Venue:  "test-venue",
		Symbol: "BTC-USDT",
		Bids:   []types.OrderBookLevel{{Price: 99, Size: 10}},
		Asks:   []types.OrderBookLevel{{Price: 101, Size: 10}},
	}
}

func testPolicy() Policy {
	return Policy{
		Enabled:      true,
		Threshold:    1,
		MaxNotional:  10000,
		HedgeRatio:   1.0,
		Cooldown:     time.Minute,
		TWAPSlices:   3,
		TWAPInterval: time.Millisecond,
	}
}

func TestMaybeHedgeNoopBelowThreshold(t *testing.T) {
	t.Parallel()
	conn := &fakeConnector{}
	h := NewHedger(conn, testPolicy())

	out, err := h.MaybeHedge(context.Background(), testBook(), 0.5, 0.01, 0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 0.5 {
		t.Errorf("expected inventory unchanged at %v, got %v", 0.5, out)
	}
}

func TestMaybeHedgeSellsLongInventory(t *testing.T) {
	t.Parallel()
	conn := &fakeConnector{}
	policy := testPolicy()
	policy.MaxNotional = 100000 // keep it a single slice
	h := NewHedger(conn, policy)

	out, err := h.MaybeHedge(context.Background(), testBook(), 5, 0.01, 0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out >= 5 {
		t.Errorf("expected inventory reduced from long position, got %v", out)
	}
	if h.LastNotional() <= 0 {
		t.Error("expected non-zero executed notional")
	}
}

func TestMaybeHedgeRespectsCooldown(t *testing.T) {
	t.Parallel()
	conn := &fakeConnector{}
	policy := testPolicy()
	policy.MaxNotional = 100000
	h := NewHedger(conn, policy)

	first, err := h.MaybeHedge(context.Background(), testBook(), 5, 0.01, 0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := h.MaybeHedge(context.Background(), testBook(), first, 0.01, 0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Errorf("expected no change during cooldown: first=%v second=%v", first, second)
	}
}

func TestTWAPExecutorSlicesEvenly(t *testing.T) {
	t.Parallel()
	var got []float64
	exec := NewTWAPExecutor(4, time.Millisecond)
	err := exec.Execute(context.Background(), func(ctx context.Context, size float64) error {
		got = append(got, size)
		return nil
	}, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 slices, got %d", len(got))
	}
	for _, s := range got {
		if s != 2 {
			t.Errorf("expected each slice = 2, got %v", s)
		}
	}
}

func TestVWAPExecutorFollowsProfileAndSubmitsRemainder(t *testing.T) {
	t.Parallel()
	var got []float64
	exec := NewVWAPExecutor([]float64{0.5, 0.3})
	err := exec.Execute(context.Background(), func(ctx context.Context, size float64) error {
		got = append(got, size)
		return nil
	}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 slices (2 weighted + remainder), got %d", len(got))
	}
	if got[0] != 50 || got[1] != 30 {
		t.Errorf("expected weighted slices 50, 30, got %v", got[:2])
	}
	if got[2] != 20 {
		t.Errorf("expected remainder slice of 20, got %v", got[2])
	}
}
