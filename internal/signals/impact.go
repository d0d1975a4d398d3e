package signals

import (
	"math"
	"sync"

	"github.com/mm-engine/mmbot/pkg/types"
)

const impactDecay = 0.99

type impactState struct {
	meanVol float64
	meanRet float64
	lambda  float64
}

// ImpactEstimator tracks a Kyle-lambda price-impact estimate per symbol:
// an EWMA of return / signed volume over trade prints, smoothed with
// a slow decay so single trades cannot dominate the estimate.
type ImpactEstimator struct {
	mu     sync.Mutex
	states map[string]*impactState
}

// NewImpactEstimator creates an empty estimator.
func NewImpactEstimator() *ImpactEstimator {
	return &ImpactEstimator{states: make(map[string]*impactState)}
}

// Update folds a trade and the price return since the previous trade
// into the lambda estimate. Guards against near-zero signed volume,
// which would make the instantaneous impact estimate blow up.
func (e *ImpactEstimator) Update(tr types.Trade, priceReturn float64) {
	signedVolume := tr.Size
	if tr.Side == types.Sell {
		signedVolume = -signedVolume
	}
	if math.Abs(signedVolume) <= 1e-9 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[tr.Symbol]
	if !ok {
		st = &impactState{}
		e.states[tr.Symbol] = st
	}

	instant := priceReturn / signedVolume
	st.meanVol = impactDecay*st.meanVol + (1-impactDecay)*math.Abs(signedVolume)
	st.meanRet = impactDecay*st.meanRet + (1-impactDecay)*priceReturn
	st.lambda = impactDecay*st.lambda + (1-impactDecay)*instant
}

// Lambda returns the current impact estimate for a symbol (0 if unseen).
func (e *ImpactEstimator) Lambda(symbol string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.states[symbol]; ok {
		return st.lambda
	}
	return 0
}
