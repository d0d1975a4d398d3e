package api

import (
	"time"

	"github.com/mm-engine/mmbot/internal/config"
)

// MarketSnapshotProvider is implemented by the engine to expose the
// current state of every running quoter for the dashboard. Methods
// must be safe to call concurrently with the trading loop.
type MarketSnapshotProvider interface {
	SymbolStatuses() []SymbolStatus
	Positions() []PositionSnapshot
	Quotes() []QuoteInfo
	RiskStatus() RiskSnapshot
	// DashboardEvents returns the channel the server drains to push
	// live events to connected WebSocket clients. May return nil if
	// the provider does not emit events.
	DashboardEvents() <-chan DashboardEvent
}

// BuildSnapshot assembles the full dashboard snapshot from a provider
// and the running config.
func BuildSnapshot(provider MarketSnapshotProvider, cfg config.Config) DashboardSnapshot {
	return DashboardSnapshot{
		Symbols:     provider.SymbolStatuses(),
		Positions:   provider.Positions(),
		Quotes:      provider.Quotes(),
		Risk:        provider.RiskStatus(),
		Config:      NewConfigSummary(cfg),
		GeneratedAt: time.Now(),
	}
}
