// Package types defines the shared data structures used across all packages
// of the market-making engine: order book levels, trades, orders, fills,
// positions, and funding info. It has no dependency on internal packages
// so it can be imported from any layer.
package types

import "time"

// Side represents the direction of an order or a trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderStatus enumerates the lifecycle states of a resting order.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
	OrderRejected  OrderStatus = "rejected"
)

// OrderBookLevel is a single price/size level in an order book.
type OrderBookLevel struct {
	Price float64
	Size  float64
}

// OrderBookSnapshot is a point-in-time view of a symbol's order book.
// Bids are sorted descending by price, Asks ascending.
type OrderBookSnapshot struct {
	Venue     string
	Symbol    string
	Bids      []OrderBookLevel
	Asks      []OrderBookLevel
	Timestamp time.Time
}

// Mid returns the simple midpoint of the best bid and ask.
// Returns 0, false if either side of the book is empty.
func (s OrderBookSnapshot) Mid() (float64, bool) {
	if len(s.Bids) == 0 || len(s.Asks) == 0 {
		return 0, false
	}
	return (s.Bids[0].Price + s.Asks[0].Price) / 2, true
}

// BestBidAsk returns the top of book. ok is false if either side is empty.
func (s OrderBookSnapshot) BestBidAsk() (bid, ask float64, ok bool) {
	if len(s.Bids) == 0 || len(s.Asks) == 0 {
		return 0, 0, false
	}
	return s.Bids[0].Price, s.Asks[0].Price, true
}

// Trade is a single executed trade observed on the venue's tape (not
// necessarily ours — used to drive microstructure/impact signals).
type Trade struct {
	Venue     string
	Symbol    string
	Price     float64
	Size      float64
	Side      Side // side of the aggressor
	Timestamp time.Time
}

// Order is a resting or historical order.
type Order struct {
	ID         string
	Venue      string
	Symbol     string
	Side       Side
	Price      float64
	Quantity   float64
	Filled     float64
	Status     OrderStatus
	ReduceOnly bool
	CreatedAt  time.Time
}

// Fill records a single execution against one of our orders.
type Fill struct {
	OrderID   string
	Venue     string
	Symbol    string
	Side      Side
	Price     float64
	Size      float64
	Fee       float64
	Timestamp time.Time
}

// Position tracks signed inventory and average cost basis for one symbol.
// Quantity > 0 is long, < 0 is short.
type Position struct {
	Symbol        string
	Quantity      float64
	AvgCost       float64
	RealizedPnL   float64
	UnrealizedPnL float64
	LastUpdated   time.Time
}

// FundingInfo is a perpetual future's funding rate snapshot.
type FundingInfo struct {
	Symbol      string
	Rate        float64 // per funding interval, e.g. 0.0001 = 1bp
	NextPayment time.Time
}

// MetricsSnapshot is the set of values exported to the metrics endpoint
// and the dashboard for one symbol.
type MetricsSnapshot struct {
	Symbol         string
	PnLRealized    float64
	PnLUnrealized  float64
	Inventory      float64
	SpreadTarget   float64
	FillRate       float64
	FundingAccrual float64
	HedgeNotional  float64
	ErrorRate      float64
	Timestamp      time.Time
}
