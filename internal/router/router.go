// Package router dispatches orders to the connector registered for
// their venue, so a single caller can fan orders out across multiple
// venue connectors without knowing which one backs each venue.
package router

import (
	"context"
	"fmt"

	"github.com/mm-engine/mmbot/internal/connector"
	"github.com/mm-engine/mmbot/pkg/types"
)

// SmartOrderRouter dispatches an order to the connector registered for
// its venue.
type SmartOrderRouter struct {
	connectors map[string]connector.Connector
}

// NewSmartOrderRouter builds a router over a venue -> connector map.
func NewSmartOrderRouter(connectors map[string]connector.Connector) *SmartOrderRouter {
	return &SmartOrderRouter{connectors: connectors}
}

// Execute places order on the connector registered for order.Venue.
func (r *SmartOrderRouter) Execute(ctx context.Context, order types.Order) (string, error) {
	conn, ok := r.connectors[order.Venue]
	if !ok {
		return "", fmt.Errorf("no connector registered for venue %q", order.Venue)
	}
	id, err := conn.PlaceOrder(ctx, order)
	if err != nil {
		return "", fmt.Errorf("route order to %s: %w", order.Venue, err)
	}
	return id, nil
}
