package hedge

import (
	"context"
	"fmt"
	"time"

	"github.com/mm-engine/mmbot/internal/connector"
	"github.com/mm-engine/mmbot/pkg/types"
)

// Policy configures when and how much of a symbol's inventory the
// hedger is allowed to offload.
type Policy struct {
	Enabled      bool
	Threshold    float64       // |inventory| below this is left alone
	MaxNotional  float64       // per-hedge notional cap
	HedgeRatio   float64       // fraction of the whole inventory to hedge
	Cooldown     time.Duration // minimum time between hedges
	TWAPSlices   int
	TWAPInterval time.Duration
	VWAPProfile  []float64 // non-empty enables VWAP slicing instead of TWAP
}

// Hedger offloads inventory that exceeds policy.Threshold by placing
// reducing orders against a connector, sliced over time via TWAP or
// VWAP depending on the policy.
type Hedger struct {
	conn   connector.Connector
	policy Policy
	twap   *TWAPExecutor
	vwap   *VWAPExecutor

	lastHedgeAt  time.Time
	lastNotional float64
}

// NewHedger builds a hedger over conn using policy.
func NewHedger(conn connector.Connector, policy Policy) *Hedger {
	var vwap *VWAPExecutor
	if len(policy.VWAPProfile) > 0 {
		vwap = NewVWAPExecutor(policy.VWAPProfile)
	}
	return &Hedger{
		conn:   conn,
		policy: policy,
		twap:   NewTWAPExecutor(policy.TWAPSlices, policy.TWAPInterval),
		vwap:   vwap,
	}
}

// LastNotional returns the notional executed by the most recent
// MaybeHedge call (0 if nothing was hedged).
func (h *Hedger) LastNotional() float64 {
	return h.lastNotional
}

// MaybeHedge inspects inventory against the policy and, if a hedge is
// due, slices a reducing order across the connector and returns the
// inventory net of whatever filled. If no hedge fires it returns
// inventory unchanged.
func (h *Hedger) MaybeHedge(ctx context.Context, snapshot types.OrderBookSnapshot, inventory, tickSize, lotSize float64) (float64, error) {
	h.lastNotional = 0
	if !h.policy.Enabled {
		return inventory, nil
	}

	now := time.Now()
	if !h.lastHedgeAt.IsZero() && now.Sub(h.lastHedgeAt) < h.policy.Cooldown {
		return inventory, nil
	}
	if absf(inventory) < h.policy.Threshold {
		return inventory, nil
	}

	effective := inventory * h.policy.HedgeRatio
	if absf(effective) < h.policy.Threshold {
		return inventory, nil
	}

	if len(snapshot.Bids) == 0 || len(snapshot.Asks) == 0 {
		return inventory, fmt.Errorf("hedge: empty book for %s", snapshot.Symbol)
	}
	side := types.Sell
	price := snapshot.Bids[0].Price
	if effective < 0 {
		side = types.Buy
		price = snapshot.Asks[0].Price
	}

	maxByNotional := h.policy.MaxNotional / maxf(price, tickSize)
	targetSize := minf(absf(effective), maxByNotional)
	desiredSize := maxf(targetSize, lotSize)

	var executedDelta float64

	submit := func(ctx context.Context, size float64) error {
		snapped := maxf(snapToLot(size, lotSize), lotSize)
		order := types.Order{
			Venue:    snapshot.Venue,
			Symbol:   snapshot.Symbol,
			Side:     side,
			Price:    price,
			Quantity: snapped,
		}
		orderID, err := h.conn.PlaceOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("hedge place order: %w", err)
		}
		if crosser, ok := h.conn.(interface{ Cross(symbol string) }); ok {
			crosser.Cross(snapshot.Symbol)
		}
		fills, err := h.conn.PollFills(ctx)
		if err != nil {
			return fmt.Errorf("hedge poll fills: %w", err)
		}
		for _, f := range fills {
			if f.OrderID != orderID {
				continue
			}
			delta := f.Size
			if f.Side == types.Sell {
				delta = -delta
			}
			executedDelta += delta
			h.lastNotional += absf(f.Price * f.Size)
		}
		return nil
	}

	var err error
	if desiredSize > h.policy.MaxNotional/2 && h.vwap != nil {
		err = h.vwap.Execute(ctx, submit, desiredSize)
	} else if desiredSize > h.policy.MaxNotional/2 {
		err = h.twap.Execute(ctx, submit, desiredSize)
	} else {
		err = submit(ctx, desiredSize)
	}
	if err != nil {
		return inventory, err
	}

	if absf(executedDelta) > 0 {
		h.lastHedgeAt = now
	}
	return inventory + executedDelta, nil
}

func snapToLot(size, lot float64) float64 {
	if lot <= 0 {
		return size
	}
	units := size / lot
	return roundHalfAwayFromZero(units) * lot
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
