package api

import (
	"testing"

	"github.com/mm-engine/mmbot/internal/config"
)

type fakeProvider struct {
	symbols   []SymbolStatus
	positions []PositionSnapshot
	quotes    []QuoteInfo
	risk      RiskSnapshot
}

func (f *fakeProvider) SymbolStatuses() []SymbolStatus         { return f.symbols }
func (f *fakeProvider) Positions() []PositionSnapshot          { return f.positions }
func (f *fakeProvider) Quotes() []QuoteInfo                    { return f.quotes }
func (f *fakeProvider) RiskStatus() RiskSnapshot               { return f.risk }
func (f *fakeProvider) DashboardEvents() <-chan DashboardEvent { return nil }

func TestBuildSnapshotAssemblesAllSections(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		symbols:   []SymbolStatus{{Symbol: "BTC-USDT", Venue: "test-venue", State: "running"}},
		positions: []PositionSnapshot{{Symbol: "BTC-USDT", Quantity: 1.5}},
		quotes:    []QuoteInfo{{Symbol: "BTC-USDT", Bid: 99.99, Ask: 100.01}},
		risk:      RiskSnapshot{RealizedPnL: 42},
	}
	cfg := config.Config{Quote: config.QuoteConfig{Gamma: 0.1}}

	snap := BuildSnapshot(provider, cfg)

	if len(snap.Symbols) != 1 || snap.Symbols[0].Symbol != "BTC-USDT" {
		t.Errorf("symbols = %+v", snap.Symbols)
	}
	if len(snap.Positions) != 1 || snap.Positions[0].Quantity != 1.5 {
		t.Errorf("positions = %+v", snap.Positions)
	}
	if len(snap.Quotes) != 1 || snap.Quotes[0].Bid != 99.99 {
		t.Errorf("quotes = %+v", snap.Quotes)
	}
	if snap.Risk.RealizedPnL != 42 {
		t.Errorf("risk = %+v", snap.Risk)
	}
	if snap.Config.Gamma != 0.1 {
		t.Errorf("config.gamma = %v, want 0.1", snap.Config.Gamma)
	}
	if snap.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
}
