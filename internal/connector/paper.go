package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mm-engine/mmbot/pkg/types"
)

// BookSource supplies the latest snapshot for a symbol so the paper
// connector can decide whether a resting order crosses.
type BookSource func(symbol string) (types.OrderBookSnapshot, bool)

type paperOrder struct {
	order     types.Order
	remaining float64
}

// PaperConnector simulates fills by crossing resting orders against the
// latest book snapshot each time Cross is called.
type PaperConnector struct {
	venue   string
	feeRate float64
	books   BookSource

	mu     sync.Mutex
	orders map[string]*paperOrder
	fills  []types.Fill
}

// NewPaperConnector builds an in-memory paper exchange for venue, using
// books to look up the latest snapshot when crossing orders.
func NewPaperConnector(venue string, feeRate float64, books BookSource) *PaperConnector {
	return &PaperConnector{
		venue:   venue,
		feeRate: feeRate,
		books:   books,
		orders:  make(map[string]*paperOrder),
	}
}

func (p *PaperConnector) PlaceOrder(ctx context.Context, order types.Order) (string, error) {
	id := "paper-" + uuid.NewString()
	order.ID = id
	order.Venue = p.venue
	order.Status = types.OrderOpen
	order.CreatedAt = time.Now()

	p.mu.Lock()
	p.orders[id] = &paperOrder{order: order, remaining: order.Quantity}
	p.mu.Unlock()

	return id, nil
}

func (p *PaperConnector) CancelOrder(ctx context.Context, symbol, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.orders, orderID)
	return nil
}

func (p *PaperConnector) CancelAll(ctx context.Context, symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, o := range p.orders {
		if o.order.Symbol == symbol {
			delete(p.orders, id)
		}
	}
	return nil
}

func (p *PaperConnector) ListOpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []types.Order
	for _, o := range p.orders {
		if symbol == "" || o.order.Symbol == symbol {
			out = append(out, o.order)
		}
	}
	return out, nil
}

func (p *PaperConnector) PollFills(ctx context.Context) ([]types.Fill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fills := p.fills
	p.fills = nil
	return fills, nil
}

func (p *PaperConnector) FetchBalance(ctx context.Context, asset string) (float64, error) {
	return 0, fmt.Errorf("paper connector has no balance tracking for %s", asset)
}

// Cross checks every resting order against the latest book snapshot for
// symbol and registers a fill for any order that crosses. It should be
// called by the feed loop each time a new snapshot arrives.
func (p *PaperConnector) Cross(symbol string) {
	snap, ok := p.books(symbol)
	if !ok {
		return
	}
	bid, ask, ok := snap.BestBidAsk()
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for id, o := range p.orders {
		if o.order.Symbol != symbol || o.remaining <= 0 {
			continue
		}
		var price float64
		crossed := false
		switch o.order.Side {
		case types.Buy:
			if o.order.Price >= ask {
				price = min(o.order.Price, ask)
				crossed = true
			}
		case types.Sell:
			if o.order.Price <= bid {
				price = max(o.order.Price, bid)
				crossed = true
			}
		}
		if !crossed {
			continue
		}

		size := o.remaining
		fee := abs(price*size) * p.feeRate
		p.fills = append(p.fills, types.Fill{
			OrderID:   id,
			Venue:     p.venue,
			Symbol:    symbol,
			Side:      o.order.Side,
			Price:     price,
			Size:      size,
			Fee:       fee,
			Timestamp: time.Now(),
		})
		o.remaining = 0
		delete(p.orders, id)
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
