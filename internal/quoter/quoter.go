// Package quoter orchestrates one symbol's quoting loop: it reads
// signals, generates quotes, reconciles resting orders against them,
// applies fills to a running position, and feeds the hedger and risk
// gate.
package quoter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mm-engine/mmbot/internal/connector"
	"github.com/mm-engine/mmbot/internal/hedge"
	"github.com/mm-engine/mmbot/internal/quoting"
	"github.com/mm-engine/mmbot/internal/risk"
	"github.com/mm-engine/mmbot/internal/signals"
	"github.com/mm-engine/mmbot/internal/storage"
	"github.com/mm-engine/mmbot/pkg/types"
)

// State is the quoter's lifecycle state. Transitions only ever move
// forward (Running -> Halted -> Terminated); no method returns a halted
// quoter to Running, and Terminated is final.
type State int

const (
	StateRunning State = iota
	StateHalted
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// SymbolConfig carries the per-symbol parameters the quoter needs that
// aren't part of the quoting model itself.
type SymbolConfig struct {
	Symbol        string
	Venue         string
	TickSize      float64
	LotSize       float64
	MakerFeeBps   float64
	TakerFeeBps   float64
	RefreshPeriod time.Duration
}

// symbolState mirrors the Python quoter's per-symbol bookkeeping:
// signed inventory, its cost basis, realized PnL, and EMA'd posted/
// filled notional for a fill-rate metric.
type symbolState struct {
	inventory         float64
	inventoryCost     float64
	pnlRealized       float64
	postedNotionalEMA float64
	filledNotionalEMA float64
	openOrders        map[string]types.Order // by order ID
	lastQuote         quoting.Quote
	lastMid           float64
}

func newSymbolState() *symbolState {
	return &symbolState{
		postedNotionalEMA: 1e-6,
		filledNotionalEMA: 1e-6,
		openOrders:        make(map[string]types.Order),
	}
}

func (s *symbolState) unrealized(mid float64) float64 {
	return s.inventory*mid - s.inventoryCost
}

func (s *symbolState) fillRate() float64 {
	if s.postedNotionalEMA < 1e-6 {
		return s.filledNotionalEMA / 1e-6
	}
	return s.filledNotionalEMA / s.postedNotionalEMA
}

// Quoter drives the quoting loop for a single symbol.
type Quoter struct {
	cfg    SymbolConfig
	conn   connector.Connector
	model  *quoting.Model
	risk   *risk.RiskLimits
	micro  *signals.MicrostructureSignals
	vol    *signals.VolatilityEstimator
	impact *signals.ImpactEstimator
	hedger *hedge.Hedger
	store  storage.Storage
	kill   *risk.KillSwitch
	logger *slog.Logger

	mu    sync.Mutex
	state State
	sym   *symbolState
}

// New builds a quoter for one symbol. hedger, kill, and store may be
// nil (no hedging, no kill switch, persistence disabled respectively).
func New(
	cfg SymbolConfig,
	conn connector.Connector,
	model *quoting.Model,
	riskLimits *risk.RiskLimits,
	micro *signals.MicrostructureSignals,
	vol *signals.VolatilityEstimator,
	impact *signals.ImpactEstimator,
	hedger *hedge.Hedger,
	kill *risk.KillSwitch,
	store storage.Storage,
	logger *slog.Logger,
) *Quoter {
	if store == nil {
		store = &storage.NoopStorage{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Quoter{
		cfg:    cfg,
		conn:   conn,
		model:  model,
		risk:   riskLimits,
		micro:  micro,
		vol:    vol,
		impact: impact,
		hedger: hedger,
		store:  store,
		kill:   kill,
		logger: logger.With("component", "quoter", "symbol", cfg.Symbol),
		state:  StateRunning,
		sym:    newSymbolState(),
	}
}

// State returns the quoter's current lifecycle state.
func (q *Quoter) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Terminate stops the quoter permanently; a terminated quoter never
// resumes.
func (q *Quoter) Terminate(ctx context.Context) {
	q.mu.Lock()
	q.state = StateTerminated
	q.mu.Unlock()
	if err := q.conn.CancelAll(ctx, q.cfg.Symbol); err != nil {
		q.logger.Error("cancel all on terminate", "error", err)
	}
}

// Inventory returns the symbol's current signed inventory.
func (q *Quoter) Inventory() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sym.inventory
}

// PnLRealized returns the symbol's cumulative realized PnL.
func (q *Quoter) PnLRealized() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sym.pnlRealized
}

// LastQuote returns the most recently generated quote and the mid price
// it was computed from, for dashboard/snapshot consumers.
func (q *Quoter) LastQuote() (quoting.Quote, float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sym.lastQuote, q.sym.lastMid
}

// Symbol returns the symbol this quoter trades.
func (q *Quoter) Symbol() string {
	return q.cfg.Symbol
}

// Venue returns the venue this quoter trades on.
func (q *Quoter) Venue() string {
	return q.cfg.Venue
}

// OpenOrderCount returns the number of orders the quoter currently
// believes are resting.
func (q *Quoter) OpenOrderCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.sym.openOrders)
}

// Tick runs one iteration of the quoting loop: check halt state,
// generate a quote from the given snapshot/signals, reconcile resting
// orders, drain fills, and run the hedger. Returns the quote it
// generated (zero value if the quoter is halted/terminated or the
// snapshot was unusable) and the resulting MetricsSnapshot.
func (q *Quoter) Tick(ctx context.Context, snap types.OrderBookSnapshot) (quoting.Quote, types.MetricsSnapshot, error) {
	q.mu.Lock()
	state := q.state
	q.mu.Unlock()

	if state != StateRunning {
		return quoting.Quote{}, types.MetricsSnapshot{}, nil
	}

	if halted := q.risk.IsSymbolHalted(q.cfg.Symbol); halted {
		if err := q.conn.CancelAll(ctx, q.cfg.Symbol); err != nil {
			q.logger.Error("cancel all on halt", "error", err)
		}
		q.mu.Lock()
		q.state = StateHalted
		q.mu.Unlock()
		return quoting.Quote{}, types.MetricsSnapshot{}, nil
	}

	mid, ok := snap.Mid()
	if !ok {
		return quoting.Quote{}, types.MetricsSnapshot{}, nil
	}

	feature := q.micro.Get(q.cfg.Symbol)
	sigma := q.vol.Sigma(q.cfg.Symbol)
	lambda := q.impact.Lambda(q.cfg.Symbol)

	q.mu.Lock()
	inventory := q.sym.inventory
	q.mu.Unlock()

	quote := q.model.GenerateQuotes(mid, feature.Microprice, inventory, sigma, feature.OrderFlowImbalance, feature.QueueImbalance, lambda, q.cfg.TickSize)

	if err := q.store.RecordSnapshot(ctx, snap); err != nil {
		q.logger.Warn("record snapshot", "error", err)
	}

	if err := q.reconcileOrders(ctx, quote); err != nil {
		return quote, types.MetricsSnapshot{}, fmt.Errorf("reconcile orders: %w", err)
	}

	if err := q.drainFills(ctx, snap); err != nil {
		return quote, types.MetricsSnapshot{}, fmt.Errorf("drain fills: %w", err)
	}

	if q.risk.IsSymbolHalted(q.cfg.Symbol) {
		q.mu.Lock()
		q.state = StateHalted
		q.mu.Unlock()
		return quote, types.MetricsSnapshot{}, nil
	}

	q.mu.Lock()
	inventory = q.sym.inventory
	q.mu.Unlock()

	if q.hedger != nil {
		newInventory, err := q.hedger.MaybeHedge(ctx, snap, inventory, q.cfg.TickSize, q.cfg.LotSize)
		if err != nil {
			q.logger.Error("hedge error", "error", err)
		} else {
			q.mu.Lock()
			q.sym.inventory = newInventory
			q.mu.Unlock()
			q.risk.RecordFill(q.cfg.Symbol, newInventory-inventory, mid)
		}
	}

	q.mu.Lock()
	q.sym.lastQuote = quote
	q.sym.lastMid = mid
	snapMetrics := types.MetricsSnapshot{
		Symbol:        q.cfg.Symbol,
		PnLRealized:   q.sym.pnlRealized,
		PnLUnrealized: q.sym.unrealized(mid),
		Inventory:     q.sym.inventory,
		SpreadTarget:  quote.Ask - quote.Bid,
		FillRate:      q.sym.fillRate(),
		Timestamp:     time.Now(),
	}
	q.mu.Unlock()
	if q.hedger != nil {
		snapMetrics.HedgeNotional = q.hedger.LastNotional()
	}

	return quote, snapMetrics, nil
}

// reconcileOrders diffs the quoter's desired bid/ask against the
// connector's actual resting orders and issues the minimal set of
// cancel+replace calls, tolerating price drift within half a tick.
func (q *Quoter) reconcileOrders(ctx context.Context, quote quoting.Quote) error {
	openOrders, err := q.conn.ListOpenOrders(ctx, q.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("list open orders: %w", err)
	}

	q.mu.Lock()
	q.sym.openOrders = make(map[string]types.Order, len(openOrders))
	bySide := make(map[types.Side]types.Order)
	for _, o := range openOrders {
		q.sym.openOrders[o.ID] = o
		bySide[o.Side] = o
	}
	q.mu.Unlock()

	desired := map[types.Side]float64{types.Buy: quote.Bid, types.Sell: quote.Ask}
	tolerance := q.cfg.TickSize / 2

	for side, targetPrice := range desired {
		existing, hasExisting := bySide[side]
		if hasExisting && absf(existing.Price-targetPrice) <= tolerance {
			continue
		}

		if hasExisting {
			if err := q.conn.CancelOrder(ctx, q.cfg.Symbol, existing.ID); err != nil {
				return fmt.Errorf("cancel order %s: %w", existing.ID, err)
			}
			q.risk.RecordCancel(q.cfg.Symbol, time.Now())
			q.risk.RemoveOrder(q.cfg.Symbol, absf(existing.Price*existing.Quantity))
			q.mu.Lock()
			delete(q.sym.openOrders, existing.ID)
			q.mu.Unlock()
		}

		order := types.Order{
			Venue:    q.cfg.Venue,
			Symbol:   q.cfg.Symbol,
			Side:     side,
			Price:    targetPrice,
			Quantity: q.cfg.LotSize,
		}
		notional := absf(order.Price * order.Quantity)
		allowed, reason := q.risk.CheckOrder(q.cfg.Symbol, notional)
		if !allowed {
			q.logger.Debug("order denied by risk gate", "reason", reason, "side", side)
			continue
		}

		orderID, err := q.conn.PlaceOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("place order: %w", err)
		}
		order.ID = orderID
		order.Status = types.OrderOpen

		q.risk.RegisterOrder(q.cfg.Symbol, notional)
		q.mu.Lock()
		q.sym.openOrders[orderID] = order
		q.sym.postedNotionalEMA = 0.9*q.sym.postedNotionalEMA + 0.1*notional
		q.mu.Unlock()
	}

	return nil
}

// drainFills polls the connector for new fills, applies each to the
// running inventory/cost basis, and records realized PnL net of fees.
func (q *Quoter) drainFills(ctx context.Context, snap types.OrderBookSnapshot) error {
	fills, err := q.conn.PollFills(ctx)
	if err != nil {
		return fmt.Errorf("poll fills: %w", err)
	}

	for _, fill := range fills {
		realized := q.applyFill(fill)

		fee := fill.Fee
		if fee == 0 {
			q.mu.Lock()
			_, isMaker := q.sym.openOrders[fill.OrderID]
			q.mu.Unlock()
			rate := q.cfg.TakerFeeBps / 10_000.0
			if isMaker {
				rate = q.cfg.MakerFeeBps / 10_000.0
			}
			fee = rate * absf(fill.Price*fill.Size)
		}
		realized -= fee

		q.mu.Lock()
		q.sym.pnlRealized += realized
		q.sym.filledNotionalEMA = 0.9*q.sym.filledNotionalEMA + 0.1*absf(fill.Price*fill.Size)
		delete(q.sym.openOrders, fill.OrderID)
		q.mu.Unlock()

		mid, _ := snap.Mid()
		q.risk.RecordFill(q.cfg.Symbol, signedSize(fill), mid)
		q.risk.RecordPnL(realized)
		q.risk.RemoveOrder(q.cfg.Symbol, absf(fill.Price*fill.Size))

		if err := q.store.RecordTrade(ctx, types.Trade{
			Venue:     fill.Venue,
			Symbol:    fill.Symbol,
			Price:     fill.Price,
			Size:      fill.Size,
			Side:      fill.Side,
			Timestamp: snap.Timestamp,
		}); err != nil {
			q.logger.Warn("record trade", "error", err)
		}
		if err := q.store.RecordFill(ctx, fill); err != nil {
			q.logger.Warn("record fill", "error", err)
		}
	}
	return nil
}

func signedSize(f types.Fill) float64 {
	if f.Side == types.Sell {
		return -f.Size
	}
	return f.Size
}

// applyFill folds a single fill into the symbol's signed inventory and
// average-cost basis, returning the PnL realized by any position this
// fill closed. Opening fills (same direction as existing inventory, or
// starting from flat) realize nothing and simply extend the cost
// basis; closing fills realize the difference between the average
// entry price and the fill price on the portion that closes.
func (q *Quoter) applyFill(fill types.Fill) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.sym
	before := s.inventory
	costBefore := s.inventoryCost
	avgCost := 0.0
	if absf(before) > 1e-9 {
		avgCost = costBefore / before
	}

	var realized float64
	var after float64

	if fill.Side == types.Buy {
		after = before + fill.Size
		if before < 0 {
			closing := minf(fill.Size, -before)
			realized += (avgCost - fill.Price) * closing
			if after < 0 {
				s.inventoryCost = avgCost * after
			} else {
				residual := fill.Size - closing
				s.inventoryCost = residual * fill.Price
			}
		} else {
			s.inventoryCost = costBefore + fill.Price*fill.Size
		}
	} else {
		after = before - fill.Size
		if before > 0 {
			closing := minf(fill.Size, before)
			realized += (fill.Price - avgCost) * closing
			if after > 0 {
				s.inventoryCost = avgCost * after
			} else {
				residual := fill.Size - closing
				s.inventoryCost = -residual * fill.Price
			}
		} else {
			s.inventoryCost = costBefore - fill.Price*fill.Size
		}
	}

	s.inventory = after
	if absf(s.inventory) < 1e-9 {
		s.inventory = 0
		s.inventoryCost = 0
	}
	return realized
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
