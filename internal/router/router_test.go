package router

import (
	"context"
	"testing"

	"github.com/mm-engine/mmbot/internal/connector"
	"github.com/mm-engine/mmbot/pkg/types"
)

type stubConnector struct {
	placed []types.Order
}

func (s *stubConnector) PlaceOrder(ctx context.Context, order types.Order) (string, error) {
	s.placed = append(s.placed, order)
	return "stub-1", nil
}
func (s *stubConnector) CancelOrder(ctx context.Context, symbol, orderID string) error { return nil }
func (s *stubConnector) CancelAll(ctx context.Context, symbol string) error            { return nil }
func (s *stubConnector) ListOpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	return nil, nil
}
func (s *stubConnector) PollFills(ctx context.Context) ([]types.Fill, error) { return nil, nil }
func (s *stubConnector) FetchBalance(ctx context.Context, asset string) (float64, error) {
	return 0, nil
}

func TestExecuteRoutesToRegisteredVenue(t *testing.T) {
	t.Parallel()
	kucoin := &stubConnector{}
	router := NewSmartOrderRouter(map[string]connector.Connector{"kucoin": kucoin})

	id, err := router.Execute(context.Background(), types.Order{Venue: "kucoin", Symbol: "BTC-USDT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "stub-1" {
		t.Errorf("order id = %q, want stub-1", id)
	}
	if len(kucoin.placed) != 1 {
		t.Errorf("expected 1 order placed on kucoin connector, got %d", len(kucoin.placed))
	}
}

func TestExecuteUnknownVenueErrors(t *testing.T) {
	t.Parallel()
	router := NewSmartOrderRouter(map[string]connector.Connector{})
	_, err := router.Execute(context.Background(), types.Order{Venue: "unknown"})
	if err == nil {
		t.Fatal("expected error for unregistered venue")
	}
}
