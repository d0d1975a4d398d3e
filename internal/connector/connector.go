// Package connector abstracts order placement, cancellation, and fill
// polling across paper and live venues behind a single interface.
package connector

import (
	"context"

	"github.com/mm-engine/mmbot/pkg/types"
)

// Connector is the venue-facing surface the quoter and hedger trade
// through. Implementations exist for paper simulation, live REST
// venues, and venues with no trading support yet.
type Connector interface {
	// PlaceOrder submits a new order and returns the venue-assigned
	// order ID.
	PlaceOrder(ctx context.Context, order types.Order) (string, error)

	// CancelOrder cancels a single resting order.
	CancelOrder(ctx context.Context, symbol, orderID string) error

	// CancelAll cancels every resting order for a symbol.
	CancelAll(ctx context.Context, symbol string) error

	// ListOpenOrders returns currently resting orders, optionally
	// filtered to one symbol (empty string means all symbols).
	ListOpenOrders(ctx context.Context, symbol string) ([]types.Order, error)

	// PollFills returns fills observed since the last call, in
	// arrival order. Implementations must not return the same fill
	// twice.
	PollFills(ctx context.Context) ([]types.Fill, error)

	// FetchBalance returns the free balance available for the given
	// asset.
	FetchBalance(ctx context.Context, asset string) (float64, error)
}
