package api

import (
	"time"

	"github.com/mm-engine/mmbot/pkg/types"
)

// DashboardEvent is the envelope for every message pushed over the
// WebSocket stream. Type discriminates the shape of Data.
type DashboardEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// FillEvent reports a single execution against one of our orders.
type FillEvent struct {
	Symbol    string    `json:"symbol"`
	Venue     string    `json:"venue"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Fee       float64   `json:"fee"`
	Position  float64   `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent reports a resting order's lifecycle transition.
type OrderEvent struct {
	OrderID   string    `json:"order_id"`
	Symbol    string    `json:"symbol"`
	Venue     string    `json:"venue"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// PositionEvent reports an updated position for a symbol.
type PositionEvent struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	AvgCost       float64   `json:"avg_cost"`
	RealizedPnL   float64   `json:"realized_pnl"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	Timestamp     time.Time `json:"timestamp"`
}

// KillEvent reports that the kill switch or a risk halt fired.
type KillEvent struct {
	Scope     string    `json:"scope"` // "account" or "symbol"
	Symbol    string    `json:"symbol,omitempty"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// QuoteEvent reports a freshly generated bid/ask pair.
type QuoteEvent struct {
	Symbol           string    `json:"symbol"`
	Bid              float64   `json:"bid"`
	Ask              float64   `json:"ask"`
	ReservationPrice float64   `json:"reservation_price"`
	Timestamp        time.Time `json:"timestamp"`
}

// BookUpdateEvent reports a fresh order book snapshot for a symbol.
type BookUpdateEvent struct {
	Symbol    string    `json:"symbol"`
	Venue     string    `json:"venue"`
	BestBid   float64   `json:"best_bid"`
	BestAsk   float64   `json:"best_ask"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFillEvent builds a FillEvent from a fill and the resulting signed
// position.
func NewFillEvent(fill types.Fill, position float64) DashboardEvent {
	return DashboardEvent{
		Type: "fill",
		Data: FillEvent{
			Symbol:    fill.Symbol,
			Venue:     fill.Venue,
			Side:      string(fill.Side),
			Price:     fill.Price,
			Size:      fill.Size,
			Fee:       fill.Fee,
			Position:  position,
			Timestamp: fill.Timestamp,
		},
	}
}

// NewOrderEvent builds an OrderEvent from an order.
func NewOrderEvent(order types.Order) DashboardEvent {
	return DashboardEvent{
		Type: "order",
		Data: OrderEvent{
			OrderID:   order.ID,
			Symbol:    order.Symbol,
			Venue:     order.Venue,
			Side:      string(order.Side),
			Price:     order.Price,
			Quantity:  order.Quantity,
			Status:    string(order.Status),
			Timestamp: order.CreatedAt,
		},
	}
}

// NewPositionEvent builds a PositionEvent from a position.
func NewPositionEvent(pos types.Position) DashboardEvent {
	return DashboardEvent{
		Type: "position",
		Data: PositionEvent{
			Symbol:        pos.Symbol,
			Quantity:      pos.Quantity,
			AvgCost:       pos.AvgCost,
			RealizedPnL:   pos.RealizedPnL,
			UnrealizedPnL: pos.UnrealizedPnL,
			Timestamp:     pos.LastUpdated,
		},
	}
}

// NewKillEvent builds a KillEvent for an account or symbol halt.
func NewKillEvent(scope, symbol, reason string) DashboardEvent {
	return DashboardEvent{
		Type: "kill",
		Data: KillEvent{
			Scope:     scope,
			Symbol:    symbol,
			Reason:    reason,
			Timestamp: time.Now(),
		},
	}
}

// NewQuoteEvent builds a QuoteEvent from a generated quote.
func NewQuoteEvent(symbol string, bid, ask, reservationPrice float64) DashboardEvent {
	return DashboardEvent{
		Type: "quote",
		Data: QuoteEvent{
			Symbol:           symbol,
			Bid:              bid,
			Ask:              ask,
			ReservationPrice: reservationPrice,
			Timestamp:        time.Now(),
		},
	}
}

// NewBookUpdateEvent builds a BookUpdateEvent from an order book snapshot.
func NewBookUpdateEvent(snap types.OrderBookSnapshot) DashboardEvent {
	bid, ask, _ := snap.BestBidAsk()
	return DashboardEvent{
		Type: "book_update",
		Data: BookUpdateEvent{
			Symbol:    snap.Symbol,
			Venue:     snap.Venue,
			BestBid:   bid,
			BestAsk:   ask,
			Timestamp: snap.Timestamp,
		},
	}
}

// newSnapshotEvent wraps a full dashboard snapshot in the same envelope
// used for incremental events, so a freshly connected client and an
// already-subscribed one see the same "snapshot" message shape.
func newSnapshotEvent(snapshot DashboardSnapshot) DashboardEvent {
	return DashboardEvent{Type: "snapshot", Data: snapshot}
}
