package signals

import (
	"math"
	"sync"

	"github.com/mm-engine/mmbot/pkg/types"
)

const defaultVolWindow = 100

// VolatilityEstimator keeps a rolling window of mid-to-mid returns per
// symbol and reports their sample standard deviation (Bessel-corrected).
type VolatilityEstimator struct {
	mu      sync.Mutex
	window  int
	lastMid map[string]float64
	returns map[string][]float64
}

// NewVolatilityEstimator creates an estimator with the given rolling
// window size. A non-positive window falls back to 100 samples.
func NewVolatilityEstimator(window int) *VolatilityEstimator {
	if window <= 0 {
		window = defaultVolWindow
	}
	return &VolatilityEstimator{
		window:  window,
		lastMid: make(map[string]float64),
		returns: make(map[string][]float64),
	}
}

// Update folds a new order book snapshot's mid price into the rolling
// return window. No-ops if the book is one-sided or this is the first
// observation for the symbol.
func (v *VolatilityEstimator) Update(snap types.OrderBookSnapshot) {
	mid, ok := snap.Mid()
	if !ok {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	prev, have := v.lastMid[snap.Symbol]
	v.lastMid[snap.Symbol] = mid
	if !have || prev == 0 {
		return
	}

	ret := (mid - prev) / prev
	buf := append(v.returns[snap.Symbol], ret)
	if len(buf) > v.window {
		buf = buf[len(buf)-v.window:]
	}
	v.returns[snap.Symbol] = buf
}

// Sigma returns the sample standard deviation of recent returns for a
// symbol. Returns 0 if fewer than 2 samples have been observed.
func (v *VolatilityEstimator) Sigma(symbol string) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	buf := v.returns[symbol]
	n := len(buf)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, r := range buf {
		sum += r
	}
	mean := sum / float64(n)

	var sqDiff float64
	for _, r := range buf {
		d := r - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff / float64(n-1))
}
