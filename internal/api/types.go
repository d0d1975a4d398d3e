package api

import (
	"time"

	"github.com/mm-engine/mmbot/internal/config"
)

// DashboardSnapshot is the full point-in-time state served by
// /api/snapshot and pushed to new WebSocket clients on connect.
type DashboardSnapshot struct {
	Symbols     []SymbolStatus     `json:"symbols"`
	Positions   []PositionSnapshot `json:"positions"`
	Quotes      []QuoteInfo        `json:"quotes"`
	Risk        RiskSnapshot       `json:"risk"`
	Config      ConfigSummary      `json:"config"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// SymbolStatus summarizes one traded symbol's operational state.
type SymbolStatus struct {
	Symbol       string `json:"symbol"`
	Venue        string `json:"venue"`
	State        string `json:"state"` // running | halted | terminated
	OpenOrders   int    `json:"open_orders"`
	SymbolHalted bool   `json:"symbol_halted"`
}

// PositionSnapshot mirrors pkg/types.Position for dashboard consumption.
type PositionSnapshot struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	AvgCost       float64   `json:"avg_cost"`
	RealizedPnL   float64   `json:"realized_pnl"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	LastUpdated   time.Time `json:"last_updated"`
}

// QuoteInfo is the most recent bid/ask pair generated for a symbol.
type QuoteInfo struct {
	Symbol           string  `json:"symbol"`
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	ReservationPrice float64 `json:"reservation_price"`
	HalfSpread       float64 `json:"half_spread"`
	Mid              float64 `json:"mid"`
}

// RiskSnapshot reports the account-wide risk gate's current state.
type RiskSnapshot struct {
	AccountHalted   bool     `json:"account_halted"`
	HaltReason      string   `json:"halt_reason,omitempty"`
	HaltedSymbols   []string `json:"halted_symbols,omitempty"`
	KillSwitchFired bool     `json:"kill_switch_fired"`
	RealizedPnL     float64  `json:"realized_pnl"`
}

// ConfigSummary exposes the tunables an operator cares about without
// leaking credentials or internal wiring.
type ConfigSummary struct {
	DryRun               bool    `json:"dry_run"`
	Gamma                float64 `json:"gamma"`
	HorizonSeconds       float64 `json:"horizon_seconds"`
	Kappa                float64 `json:"kappa"`
	MinSpread            float64 `json:"min_spread"`
	SkewAlpha            float64 `json:"skew_alpha"`
	OrderSize            float64 `json:"order_size"`
	RefreshInterval      string  `json:"refresh_interval"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	MaxDailyLoss         float64 `json:"max_daily_loss"`
	MaxInventoryNotional float64 `json:"max_inventory_notional"`
	MaxOpenOrders        int     `json:"max_open_orders"`
	HedgeEnabled         bool    `json:"hedge_enabled"`
	BasisEnabled         bool    `json:"basis_enabled"`
	StorageBackend       string  `json:"storage_backend"`
}

// NewConfigSummary projects the full strategy config down to the
// dashboard-relevant fields.
func NewConfigSummary(cfg config.Config) ConfigSummary {
	return ConfigSummary{
		DryRun:               cfg.DryRun,
		Gamma:                cfg.Quote.Gamma,
		HorizonSeconds:       cfg.Quote.HorizonSeconds,
		Kappa:                cfg.Quote.Kappa,
		MinSpread:            cfg.Quote.MinSpread,
		SkewAlpha:            cfg.Quote.SkewAlpha,
		OrderSize:            cfg.Quote.OrderSize,
		RefreshInterval:      cfg.Quote.RefreshInterval.String(),
		MaxDrawdown:          cfg.Risk.MaxDrawdown,
		MaxDailyLoss:         cfg.Risk.MaxDailyLoss,
		MaxInventoryNotional: cfg.Risk.MaxInventoryNotional,
		MaxOpenOrders:        cfg.Risk.MaxOpenOrders,
		HedgeEnabled:         cfg.Hedge.Enabled,
		BasisEnabled:         cfg.Basis.Enabled,
		StorageBackend:       cfg.Storage.Backend,
	}
}
