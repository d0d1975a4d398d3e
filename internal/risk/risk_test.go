package risk

import (
	"context"
	"testing"
	"time"
)

func testSymbolLimits() map[string]SymbolLimits {
	return map[string]SymbolLimits{
		"BTC-USDT": {
			MaxPosition:         10,
			MaxOrderNotional:    5000,
			MaxCancelsPerMinute: 3,
			MaxOrders:           2,
			AccountNotionalCap:  8000,
		},
		"ETH-USDT": {
			MaxPosition:         50,
			MaxOrderNotional:    5000,
			MaxCancelsPerMinute: 3,
			MaxOrders:           2,
			AccountNotionalCap:  8000,
		},
	}
}

func testAccountLimits() AccountLimits {
	return AccountLimits{
		MaxDrawdown:          1000,
		MaxDailyLoss:         500,
		MaxInventoryNotional: 100000,
		MaxOpenOrders:        10,
	}
}

func newTestRiskLimits() *RiskLimits {
	return NewRiskLimits(testSymbolLimits(), testAccountLimits())
}

func TestCheckOrderAllowedWithinLimits(t *testing.T) {
	t.Parallel()
	r := newTestRiskLimits()
	ok, reason := r.CheckOrder("BTC-USDT", 1000)
	if !ok {
		t.Fatalf("expected order allowed, got denied: %s", reason)
	}
}

func TestCheckOrderDeniedOverNotional(t *testing.T) {
	t.Parallel()
	r := newTestRiskLimits()
	ok, _ := r.CheckOrder("BTC-USDT", 6000)
	if ok {
		t.Fatal("expected order denied for exceeding max_order_notional")
	}
}

func TestSymbolBreachHaltsOnlyThatSymbol(t *testing.T) {
	t.Parallel()
	r := newTestRiskLimits()
	r.RecordFill("BTC-USDT", 20, 100) // exceeds max_position 10

	if !r.IsSymbolHalted("BTC-USDT") {
		t.Fatal("expected BTC-USDT halted after exceeding max_position")
	}
	if r.IsSymbolHalted("ETH-USDT") {
		t.Fatal("ETH-USDT should not be halted by a BTC-USDT breach")
	}
	ok, _ := r.CheckOrder("ETH-USDT", 1000)
	if !ok {
		t.Fatal("ETH-USDT orders should still be allowed")
	}
}

func TestInventoryNotionalValuesEachSymbolAtItsOwnMid(t *testing.T) {
	t.Parallel()
	r := NewRiskLimits(testSymbolLimits(), AccountLimits{MaxInventoryNotional: 100000})

	// 1 BTC-USDT at 30000 is already 30000 notional; if ETH-USDT's fill
	// valued BTC-USDT at ETH's much lower mid, this breach would be
	// invisible until BTC's own mid observation caught up.
	r.RecordFill("BTC-USDT", 1, 30000)
	r.RecordFill("ETH-USDT", 1, 2000)

	if halted, _ := r.IsAccountHalted(); halted {
		t.Fatal("unexpected premature halt")
	}

	r.RecordFill("BTC-USDT", 3, 30000) // 4 BTC-USDT * 30000 = 120000 > 100000
	halted, _ := r.IsAccountHalted()
	if !halted {
		t.Fatal("expected account halted once BTC-USDT's own notional exceeds the cap")
	}
}

func TestAccountBreachHaltsAccountWide(t *testing.T) {
	t.Parallel()
	r := newTestRiskLimits()
	r.RecordPnL(-600) // exceeds max_daily_loss 500

	halted, reason := r.IsAccountHalted()
	if !halted {
		t.Fatal("expected account halted after exceeding max_daily_loss")
	}
	if reason == "" {
		t.Error("expected a non-empty halt reason")
	}

	ok, _ := r.CheckOrder("ETH-USDT", 10)
	if ok {
		t.Fatal("expected all symbols denied once account is halted")
	}
}

func TestHaltIsOneWayUntilExplicitReset(t *testing.T) {
	t.Parallel()
	r := newTestRiskLimits()
	r.RecordFill("BTC-USDT", 20, 100)
	if !r.IsSymbolHalted("BTC-USDT") {
		t.Fatal("expected halt")
	}

	// Position drops back under the limit; halt must not clear itself.
	r.RecordFill("BTC-USDT", -15, 100)
	if !r.IsSymbolHalted("BTC-USDT") {
		t.Fatal("halt should persist until explicit reset even after the breach condition clears")
	}

	r.ResetSymbol("BTC-USDT")
	if r.IsSymbolHalted("BTC-USDT") {
		t.Fatal("expected halt cleared after ResetSymbol")
	}
}

func TestRecordCancelHaltsAfterRateExceeded(t *testing.T) {
	t.Parallel()
	r := newTestRiskLimits()
	now := time.Now()
	for i := 0; i < 4; i++ {
		r.RecordCancel("BTC-USDT", now.Add(time.Duration(i)*time.Second))
	}
	if !r.IsSymbolHalted("BTC-USDT") {
		t.Fatal("expected halt after exceeding max_cancels_per_minute")
	}
}

func TestKillSwitchFiresExactlyOnce(t *testing.T) {
	t.Parallel()
	fired := 0
	k := NewKillSwitch(100, func(reason string) { fired++ })

	k.Check(150, "breach 1")
	k.Check(200, "breach 2")
	k.Check(300, "breach 3")

	if fired != 1 {
		t.Errorf("expected callback fired exactly once, got %d", fired)
	}
	if !k.Tripped() {
		t.Error("expected switch tripped")
	}
}

func TestKillSwitchResetAllowsRefire(t *testing.T) {
	t.Parallel()
	fired := 0
	k := NewKillSwitch(100, func(reason string) { fired++ })

	k.Check(150, "breach")
	k.Reset()
	k.Check(200, "breach again")

	if fired != 2 {
		t.Errorf("expected 2 fires across reset, got %d", fired)
	}
}

func TestKillSwitchDoesNotFireBelowThreshold(t *testing.T) {
	t.Parallel()
	fired := false
	k := NewKillSwitch(100, func(reason string) { fired = true })
	k.Check(50, "no breach")
	if fired {
		t.Error("should not fire below threshold")
	}
}

func TestOrphanReaperNeverCancelsYoungOrders(t *testing.T) {
	t.Parallel()
	now := time.Now()
	orders := []OrphanOrder{
		{Venue: "kucoin", Symbol: "BTC-USDT", OrderID: "young", PlacedAt: now.Add(-2 * time.Second)},
	}
	var cancelled []string
	reaper := NewOrphanReaper(10*time.Second, func() []OrphanOrder { return orders }, func(ctx context.Context, venue, symbol, orderID string) error {
		cancelled = append(cancelled, orderID)
		return nil
	}, nil)

	reaper.Sweep(context.Background(), now)

	if len(cancelled) != 0 {
		t.Errorf("expected no cancellations, got %v", cancelled)
	}
}

func TestOrphanReaperCancelsOrdersOlderThanTimeout(t *testing.T) {
	t.Parallel()
	now := time.Now()
	orders := []OrphanOrder{
		{Venue: "kucoin", Symbol: "BTC-USDT", OrderID: "old", PlacedAt: now.Add(-15 * time.Second)},
		{Venue: "kucoin", Symbol: "BTC-USDT", OrderID: "young", PlacedAt: now.Add(-1 * time.Second)},
	}
	var cancelled []string
	reaper := NewOrphanReaper(10*time.Second, func() []OrphanOrder { return orders }, func(ctx context.Context, venue, symbol, orderID string) error {
		cancelled = append(cancelled, orderID)
		return nil
	}, nil)

	reaper.Sweep(context.Background(), now)

	if len(cancelled) != 1 || cancelled[0] != "old" {
		t.Errorf("expected only 'old' cancelled, got %v", cancelled)
	}
	if reaper.ReapedCount() != 1 {
		t.Errorf("expected ReapedCount 1, got %d", reaper.ReapedCount())
	}
}
