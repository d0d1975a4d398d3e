// Package risk enforces per-symbol and account-wide trading limits, a
// latching kill switch, and an orphan-order reaper.
package risk

import (
	"fmt"
	"sync"
	"time"
)

// SymbolLimits bounds a single symbol's trading activity.
type SymbolLimits struct {
	MaxPosition         float64
	MaxOrderNotional    float64
	MaxCancelsPerMinute int
	MaxOrders           int
	AccountNotionalCap  float64
}

// symbolState tracks live counters for one symbol.
type symbolState struct {
	position          float64
	lastMid           float64
	openOrders        int
	openOrderNotional float64
	cancelTimestamps  []time.Time
	halted            bool
}

// AccountLimits bounds exposure and losses across all symbols.
type AccountLimits struct {
	MaxDrawdown          float64
	MaxDailyLoss         float64
	MaxInventoryNotional float64
	MaxOpenOrders        int
}

// RiskLimits is the account-wide risk gate. It is one-way: once a symbol
// or the account halts, it stays halted until ResetSymbol or ResetAccount
// is called explicitly
// — there is no automatic re-enable.
type RiskLimits struct {
	mu            sync.Mutex
	symbolLimits  map[string]SymbolLimits
	symbolState   map[string]*symbolState
	account       AccountLimits
	realizedPnL   float64
	peakPnL       float64
	accountHalted bool
	haltReason    string
}

// NewRiskLimits creates a risk gate from per-symbol and account-wide
// limits.
func NewRiskLimits(symbols map[string]SymbolLimits, account AccountLimits) *RiskLimits {
	return &RiskLimits{
		symbolLimits: symbols,
		symbolState:  make(map[string]*symbolState),
		account:      account,
	}
}

func (r *RiskLimits) stateLocked(symbol string) *symbolState {
	st, ok := r.symbolState[symbol]
	if !ok {
		st = &symbolState{}
		r.symbolState[symbol] = st
	}
	return st
}

// CheckOrder reports whether a new order of the given notional is allowed
// for symbol, given current state. Returns a reason when denied.
func (r *RiskLimits) CheckOrder(symbol string, notional float64) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accountHalted {
		return false, "account halted: " + r.haltReason
	}

	st := r.stateLocked(symbol)
	if st.halted {
		return false, fmt.Sprintf("symbol %s halted", symbol)
	}

	limits, ok := r.symbolLimits[symbol]
	if !ok {
		return false, fmt.Sprintf("no limits configured for symbol %s", symbol)
	}

	if limits.MaxOrderNotional > 0 && notional > limits.MaxOrderNotional {
		return false, fmt.Sprintf("order notional %.2f exceeds max_order_notional %.2f", notional, limits.MaxOrderNotional)
	}
	if limits.MaxOrders > 0 && st.openOrders >= limits.MaxOrders {
		return false, fmt.Sprintf("symbol %s at max_orders %d", symbol, limits.MaxOrders)
	}
	if limits.AccountNotionalCap > 0 && st.openOrderNotional+notional > limits.AccountNotionalCap {
		return false, fmt.Sprintf("symbol %s would exceed account_notional_cap %.2f", symbol, limits.AccountNotionalCap)
	}
	if r.account.MaxOpenOrders > 0 && r.totalOpenOrdersLocked() >= r.account.MaxOpenOrders {
		return false, "account at max_open_orders"
	}

	return true, ""
}

func (r *RiskLimits) totalOpenOrdersLocked() int {
	total := 0
	for _, st := range r.symbolState {
		total += st.openOrders
	}
	return total
}

// RegisterOrder records a newly placed order against the symbol's open
// order count and notional.
func (r *RiskLimits) RegisterOrder(symbol string, notional float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.stateLocked(symbol)
	st.openOrders++
	st.openOrderNotional += notional
}

// RemoveOrder removes a previously registered order (cancel or fill).
func (r *RiskLimits) RemoveOrder(symbol string, notional float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.stateLocked(symbol)
	if st.openOrders > 0 {
		st.openOrders--
	}
	st.openOrderNotional -= notional
	if st.openOrderNotional < 0 {
		st.openOrderNotional = 0
	}
}

// RecordCancel logs a cancel for rate limiting and halts the symbol if
// it exceeds max_cancels_per_minute.
func (r *RiskLimits) RecordCancel(symbol string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stateLocked(symbol)
	cutoff := now.Add(-time.Minute)
	kept := st.cancelTimestamps[:0]
	for _, ts := range st.cancelTimestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	st.cancelTimestamps = append(kept, now)

	limits, ok := r.symbolLimits[symbol]
	if ok && limits.MaxCancelsPerMinute > 0 && len(st.cancelTimestamps) > limits.MaxCancelsPerMinute {
		r.haltSymbolLocked(symbol, "exceeded max_cancels_per_minute")
	}
}

// RecordFill updates signed position for a symbol and checks the
// per-symbol position limit and account-wide inventory notional limit.
// markPrice is the symbol's own latest mid, recorded per-symbol so
// account-wide notional is valued correctly across symbols trading at
// different price scales.
func (r *RiskLimits) RecordFill(symbol string, signedSize, markPrice float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stateLocked(symbol)
	st.position += signedSize
	st.lastMid = markPrice

	limits, ok := r.symbolLimits[symbol]
	if ok && limits.MaxPosition > 0 {
		abs := st.position
		if abs < 0 {
			abs = -abs
		}
		if abs > limits.MaxPosition {
			r.haltSymbolLocked(symbol, "exceeded max_position")
		}
	}

	r.evaluateInventoryNotionalLocked()
}

// RecordPnL folds a realized PnL delta into the account's running total
// and checks the max_daily_loss and max_drawdown limits.
func (r *RiskLimits) RecordPnL(delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.realizedPnL += delta
	if r.realizedPnL > r.peakPnL {
		r.peakPnL = r.realizedPnL
	}

	if r.account.MaxDailyLoss > 0 && r.realizedPnL < -r.account.MaxDailyLoss {
		r.haltAccountLocked("exceeded max_daily_loss")
	}
	drawdown := r.peakPnL - r.realizedPnL
	if r.account.MaxDrawdown > 0 && drawdown > r.account.MaxDrawdown {
		r.haltAccountLocked("exceeded max_drawdown")
	}
}

// evaluateInventoryNotionalLocked sums each symbol's position valued at
// that symbol's own latest recorded mid, not a single price shared
// across symbols.
func (r *RiskLimits) evaluateInventoryNotionalLocked() {
	if r.account.MaxInventoryNotional <= 0 {
		return
	}
	var total float64
	for _, st := range r.symbolState {
		notional := st.position * st.lastMid
		if notional < 0 {
			notional = -notional
		}
		total += notional
	}
	if total > r.account.MaxInventoryNotional {
		r.haltAccountLocked("exceeded max_inventory_notional")
	}
}

func (r *RiskLimits) haltSymbolLocked(symbol, reason string) {
	st := r.stateLocked(symbol)
	st.halted = true
	_ = reason // not stored; CheckOrder reports only that the symbol is halted
}

func (r *RiskLimits) haltAccountLocked(reason string) {
	r.accountHalted = true
	r.haltReason = reason
}

// IsSymbolHalted reports whether a symbol is halted.
func (r *RiskLimits) IsSymbolHalted(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accountHalted || r.stateLocked(symbol).halted
}

// IsAccountHalted reports whether the account-wide halt is active.
func (r *RiskLimits) IsAccountHalted() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accountHalted, r.haltReason
}

// ResetSymbol clears a symbol's halt (operator action only).
func (r *RiskLimits) ResetSymbol(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stateLocked(symbol).halted = false
}

// ResetAccount clears the account-wide halt (operator action only).
func (r *RiskLimits) ResetAccount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accountHalted = false
	r.haltReason = ""
}

// Position returns a symbol's currently tracked signed position.
func (r *RiskLimits) Position(symbol string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked(symbol).position
}
