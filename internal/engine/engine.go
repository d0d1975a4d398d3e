// Package engine is the central orchestrator of the market-making bot.
//
// It wires together all subsystems:
//
//  1. Config supplies a static list of venue+symbol slots to trade.
//  2. Engine starts/stops a quoting goroutine per slot (runSlot).
//  3. Each slot gets: a feed subscription, microstructure/volatility/
//     impact signals, an Avellaneda-Stoikov model, a connector, a risk
//     gate, an optional hedger and basis overlay, and a Quoter that
//     owns reconciliation and fill accounting.
//  4. A shared risk.RiskLimits and risk.KillSwitch span every slot so
//     account-wide limits see the whole book.
//  5. An orphan reaper periodically cancels every open order, across all
//     slots, that has rested longer than the orphan timeout.
//
// Lifecycle: New() → Start() → [runs until ctx cancelled] → Stop()
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mm-engine/mmbot/internal/api"
	"github.com/mm-engine/mmbot/internal/basis"
	"github.com/mm-engine/mmbot/internal/bus"
	"github.com/mm-engine/mmbot/internal/config"
	"github.com/mm-engine/mmbot/internal/connector"
	"github.com/mm-engine/mmbot/internal/feed"
	"github.com/mm-engine/mmbot/internal/hedge"
	"github.com/mm-engine/mmbot/internal/metrics"
	"github.com/mm-engine/mmbot/internal/quoter"
	"github.com/mm-engine/mmbot/internal/quoting"
	"github.com/mm-engine/mmbot/internal/risk"
	"github.com/mm-engine/mmbot/internal/signals"
	"github.com/mm-engine/mmbot/internal/storage"
	"github.com/mm-engine/mmbot/pkg/types"
)

// slot represents one actively-traded venue+symbol pair. Each slot runs
// a dedicated goroutine (runSlot) with its own quoter and signal state.
type slot struct {
	cfg    config.SymbolConfig
	conn   connector.Connector
	q      *quoter.Quoter
	basis  *basis.Capture
	cancel context.CancelFunc
}

// Engine orchestrates every trading slot, the shared risk gate, the
// orphan reaper, storage, and metrics collection.
type Engine struct {
	cfg     config.Config
	venues  config.Venues
	risk    *risk.RiskLimits
	kill    *risk.KillSwitch
	reaper  *risk.OrphanReaper
	store   storage.Storage
	metrics *metrics.Collector
	bus     *bus.Bus
	logger  *slog.Logger

	slotsMu sync.RWMutex
	slots   map[string]*slot // keyed by venue+":"+symbol

	dashboardEvents chan api.DashboardEvent

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires all engine components from the loaded config. venues may
// be nil if every symbol runs against the paper connector.
func New(cfg config.Config, venues config.Venues, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	symbolLimits := make(map[string]risk.SymbolLimits, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbolLimits[s.Name] = risk.SymbolLimits{
			MaxPosition:         s.MaxPosition,
			MaxOrderNotional:    s.MaxOrderNotional,
			MaxCancelsPerMinute: s.MaxCancelsPerMinute,
			MaxOrders:           s.MaxOrders,
			AccountNotionalCap:  s.AccountNotionalCap,
		}
	}
	riskLimits := risk.NewRiskLimits(symbolLimits, risk.AccountLimits{
		MaxDrawdown:          cfg.Risk.MaxDrawdown,
		MaxDailyLoss:         cfg.Risk.MaxDailyLoss,
		MaxInventoryNotional: cfg.Risk.MaxInventoryNotional,
		MaxOpenOrders:        cfg.Risk.MaxOpenOrders,
	})

	dashboardEvents := make(chan api.DashboardEvent, 256)

	killThreshold := float64(cfg.Risk.KillSwitchThreshold)
	kill := risk.NewKillSwitch(killThreshold, func(reason string) {
		logger.Error("kill switch fired", "reason", reason)
		select {
		case dashboardEvents <- api.NewKillEvent("account", "", reason):
		default:
		}
	})

	store, err := storage.New(cfg.Storage.Backend, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	e := &Engine{
		cfg:             cfg,
		venues:          venues,
		risk:            riskLimits,
		kill:            kill,
		store:           store,
		metrics:         metrics.NewCollector(),
		bus:             bus.New(),
		logger:          logger.With("component", "engine"),
		slots:           make(map[string]*slot),
		dashboardEvents: dashboardEvents,
	}

	orphanSource := func() []risk.OrphanOrder {
		return e.collectOrphanCandidates()
	}
	cancelFn := func(ctx context.Context, venue, symbol, orderID string) error {
		return e.cancelOrphan(ctx, venue, symbol, orderID)
	}
	e.reaper = risk.NewOrphanReaper(cfg.Risk.OrphanTimeout, orphanSource, cancelFn, logger)

	for _, s := range cfg.Symbols {
		if err := e.buildSlot(s); err != nil {
			return nil, fmt.Errorf("build slot %s: %w", s.Name, err)
		}
	}

	return e, nil
}

func slotKey(venue, symbol string) string {
	return venue + ":" + symbol
}

func (e *Engine) buildSlot(s config.SymbolConfig) error {
	conn, err := e.buildConnector(s)
	if err != nil {
		return err
	}

	model := quoting.NewModel(e.cfg.Quote.Gamma, e.cfg.Quote.HorizonSeconds, e.cfg.Quote.Kappa, e.cfg.Quote.MinSpread, e.cfg.Quote.SkewAlpha)

	var hedger *hedge.Hedger
	if e.cfg.Hedge.Enabled {
		ratio := e.cfg.Hedge.HedgeRatio
		if ratio <= 0 {
			ratio = 1.0
		}
		hedger = hedge.NewHedger(conn, hedge.Policy{
			Enabled:      e.cfg.Hedge.Enabled,
			Threshold:    e.cfg.Hedge.RebalanceThreshold,
			HedgeRatio:   ratio,
			MaxNotional:  e.cfg.Hedge.MaxNotional,
			Cooldown:     e.cfg.Hedge.Cooldown,
			TWAPSlices:   e.cfg.Hedge.TWAPSlices,
			TWAPInterval: e.cfg.Hedge.TWAPInterval,
		})
	}

	var basisCapture *basis.Capture
	if s.IsPerp && e.cfg.Basis.Enabled {
		basisCapture = basis.NewCapture(basis.Policy{
			Enabled:          e.cfg.Basis.Enabled,
			MaxNotional:      e.cfg.Basis.MaxNotional,
			FundingThreshold: e.cfg.Basis.FundingThreshold,
		})
	}

	q := quoter.New(
		quoter.SymbolConfig{
			Symbol:        s.Name,
			Venue:         s.Venue,
			TickSize:      s.TickSize,
			LotSize:       s.LotSize,
			MakerFeeBps:   s.MakerFeeBps,
			TakerFeeBps:   s.TakerFeeBps,
			RefreshPeriod: e.cfg.Quote.RefreshInterval,
		},
		conn,
		model,
		e.risk,
		signals.NewMicrostructureSignals(),
		signals.NewVolatilityEstimator(100),
		signals.NewImpactEstimator(),
		hedger,
		e.kill,
		e.store,
		e.logger,
	)

	e.slotsMu.Lock()
	e.slots[slotKey(s.Venue, s.Name)] = &slot{cfg: s, conn: conn, q: q, basis: basisCapture}
	e.slotsMu.Unlock()
	return nil
}

func (e *Engine) buildConnector(s config.SymbolConfig) (connector.Connector, error) {
	if e.cfg.DryRun {
		store := feed.NewInMemoryFeedStore()
		return connector.NewPaperConnector(s.Venue, s.TakerFeeBps/10_000.0, func(symbol string) (types.OrderBookSnapshot, bool) {
			return store.GetSnapshot(symbol)
		}), nil
	}

	info, ok := e.venues.Get(s.Venue)
	if !ok {
		return &connector.UnsupportedConnector{Venue: s.Venue}, nil
	}
	creds := config.LoadExchangeCredentials(s.Venue)
	if creds == nil {
		return &connector.UnsupportedConnector{Venue: s.Venue}, nil
	}
	return connector.NewLiveConnector(
		s.Venue,
		info.RESTURL,
		connector.Credentials{APIKey: creds.APIKey, Secret: creds.Secret},
		info.RateLimit.RequestsPerSecond,
		info.RateLimit.Burst,
		e.logger,
	), nil
}

// Start runs every slot's quoting loop until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.slotsMu.RLock()
	slots := make([]*slot, 0, len(e.slots))
	for _, s := range e.slots {
		slots = append(slots, s)
	}
	e.slotsMu.RUnlock()

	for _, s := range slots {
		slotCtx, cancel := context.WithCancel(e.ctx)
		s.cancel = cancel
		e.wg.Add(1)
		go e.runSlot(slotCtx, s)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.reaper.Run(e.ctx, 5*time.Second)
	}()
}

// Stop cancels every slot and waits for their goroutines to exit.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	if err := e.store.Close(); err != nil {
		e.logger.Error("close storage", "error", err)
	}
	close(e.dashboardEvents)
}

func (e *Engine) runSlot(ctx context.Context, s *slot) {
	defer e.wg.Done()

	period := e.cfg.Quote.RefreshInterval
	if period <= 0 {
		period = time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	feedStore := feed.NewInMemoryFeedStore()
	if e.cfg.DryRun {
		synthetic := feed.NewSyntheticFeed(e.bus, s.cfg.Venue, s.cfg.Name, 100, period, int64(len(s.cfg.Name)))
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			synthetic.Run(ctx, feedStore)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			s.q.Terminate(context.Background())
			return
		case <-ticker.C:
			snap, ok := feedStore.GetSnapshot(s.cfg.Name)
			if !ok {
				continue
			}
			_, metricsSnap, err := s.q.Tick(ctx, snap)
			if err != nil {
				e.logger.Error("quoter tick", "error", err, "symbol", s.cfg.Name)
				e.metrics.IncError(s.cfg.Name)
				continue
			}

			if s.basis != nil {
				if mid, ok := snap.Mid(); ok {
					s.basis.Observe(mid, mid)
					target := s.basis.OnFunding(types.FundingInfo{Symbol: s.cfg.Name}, s.q.Inventory(), mid)
					metricsSnap.FundingAccrual = s.basis.Accrual()
					_ = target // not acted on; only the funding accrual is reported
				}
			}

			e.metrics.Observe(metricsSnap)
			e.kill.Check(metricsSnap.PnLRealized, fmt.Sprintf("symbol %s realized pnl breach", s.cfg.Name))
		}
	}
}

func (e *Engine) collectOrphanCandidates() []risk.OrphanOrder {
	e.slotsMu.RLock()
	defer e.slotsMu.RUnlock()

	var out []risk.OrphanOrder
	for _, s := range e.slots {
		orders, err := s.conn.ListOpenOrders(context.Background(), s.cfg.Name)
		if err != nil {
			continue
		}
		for _, o := range orders {
			out = append(out, risk.OrphanOrder{Venue: o.Venue, Symbol: o.Symbol, OrderID: o.ID, PlacedAt: o.CreatedAt})
		}
	}
	return out
}

func (e *Engine) cancelOrphan(ctx context.Context, venue, symbol, orderID string) error {
	e.slotsMu.RLock()
	s, ok := e.slots[slotKey(venue, symbol)]
	e.slotsMu.RUnlock()
	if !ok {
		return fmt.Errorf("no slot for %s/%s", venue, symbol)
	}
	return s.conn.CancelOrder(ctx, symbol, orderID)
}

// SymbolStatuses implements api.MarketSnapshotProvider.
func (e *Engine) SymbolStatuses() []api.SymbolStatus {
	e.slotsMu.RLock()
	defer e.slotsMu.RUnlock()

	out := make([]api.SymbolStatus, 0, len(e.slots))
	for _, s := range e.slots {
		out = append(out, api.SymbolStatus{
			Symbol:       s.cfg.Name,
			Venue:        s.cfg.Venue,
			State:        s.q.State().String(),
			OpenOrders:   s.q.OpenOrderCount(),
			SymbolHalted: e.risk.IsSymbolHalted(s.cfg.Name),
		})
	}
	return out
}

// Positions implements api.MarketSnapshotProvider.
func (e *Engine) Positions() []api.PositionSnapshot {
	e.slotsMu.RLock()
	defer e.slotsMu.RUnlock()

	out := make([]api.PositionSnapshot, 0, len(e.slots))
	for _, s := range e.slots {
		_, mid := s.q.LastQuote()
		out = append(out, api.PositionSnapshot{
			Symbol:        s.cfg.Name,
			Quantity:      s.q.Inventory(),
			RealizedPnL:   s.q.PnLRealized(),
			UnrealizedPnL: s.q.Inventory() * mid,
			LastUpdated:   time.Now(),
		})
	}
	return out
}

// Quotes implements api.MarketSnapshotProvider.
func (e *Engine) Quotes() []api.QuoteInfo {
	e.slotsMu.RLock()
	defer e.slotsMu.RUnlock()

	out := make([]api.QuoteInfo, 0, len(e.slots))
	for _, s := range e.slots {
		quote, mid := s.q.LastQuote()
		out = append(out, api.QuoteInfo{
			Symbol:           s.cfg.Name,
			Bid:              quote.Bid,
			Ask:              quote.Ask,
			ReservationPrice: quote.ReservationPrice,
			HalfSpread:       quote.HalfSpread,
			Mid:              mid,
		})
	}
	return out
}

// RiskStatus implements api.MarketSnapshotProvider.
func (e *Engine) RiskStatus() api.RiskSnapshot {
	halted, reason := e.risk.IsAccountHalted()

	e.slotsMu.RLock()
	var haltedSymbols []string
	for _, s := range e.slots {
		if e.risk.IsSymbolHalted(s.cfg.Name) {
			haltedSymbols = append(haltedSymbols, s.cfg.Name)
		}
	}
	e.slotsMu.RUnlock()

	return api.RiskSnapshot{
		AccountHalted:   halted,
		HaltReason:      reason,
		HaltedSymbols:   haltedSymbols,
		KillSwitchFired: e.kill.Tripped(),
	}
}

// DashboardEvents implements api.MarketSnapshotProvider.
func (e *Engine) DashboardEvents() <-chan api.DashboardEvent {
	return e.dashboardEvents
}

// MetricsCollector exposes the Prometheus collector for wiring into the
// metrics HTTP server.
func (e *Engine) MetricsCollector() *metrics.Collector {
	return e.metrics
}
