package connector

import (
	"context"
	"fmt"

	"github.com/mm-engine/mmbot/pkg/types"
)

// UnsupportedConnector stands in for a venue listed in the catalogue
// that has no trading implementation yet (typically a perp-DEX venue).
// Every call returns an error naming the venue, so the venue catalogue
// can list it without the engine crashing on startup.
type UnsupportedConnector struct {
	Venue string
}

func (u *UnsupportedConnector) unsupported(op string) error {
	return fmt.Errorf("%s: venue %q has no trading support", op, u.Venue)
}

func (u *UnsupportedConnector) PlaceOrder(ctx context.Context, order types.Order) (string, error) {
	return "", u.unsupported("place order")
}

func (u *UnsupportedConnector) CancelOrder(ctx context.Context, symbol, orderID string) error {
	return u.unsupported("cancel order")
}

func (u *UnsupportedConnector) CancelAll(ctx context.Context, symbol string) error {
	return u.unsupported("cancel all")
}

func (u *UnsupportedConnector) ListOpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	return nil, u.unsupported("list open orders")
}

func (u *UnsupportedConnector) PollFills(ctx context.Context) ([]types.Fill, error) {
	return nil, u.unsupported("poll fills")
}

func (u *UnsupportedConnector) FetchBalance(ctx context.Context, asset string) (float64, error) {
	return 0, u.unsupported("fetch balance")
}
