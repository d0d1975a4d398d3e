// Package basis tracks perp-spot basis history and funding accrual for
// a perpetual symbol, publishing a target hedge notional without ever
// placing orders itself.
package basis

import (
	"sync"

	"github.com/mm-engine/mmbot/pkg/types"
)

const maxBasisHistory = 100

// Policy configures the funding/basis overlay for one perp symbol.
type Policy struct {
	Enabled          bool
	MaxNotional      float64
	FundingThreshold float64
}

// Capture maintains a bounded basis history and funding accrual for one
// perp symbol, and derives a target notional from the predicted basis
// and current funding rate. It never places orders: the target notional
// returned by OnFunding is only a signal.
type Capture struct {
	policy Policy

	mu      sync.Mutex
	history []float64 // perp - spot, most recent last
	accrual float64
}

// NewCapture builds a basis/funding overlay from policy.
func NewCapture(policy Policy) *Capture {
	return &Capture{policy: policy}
}

// Observe records a perp-spot basis sample.
func (c *Capture) Observe(perpMid, spotMid float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, perpMid-spotMid)
	if len(c.history) > maxBasisHistory {
		c.history = c.history[len(c.history)-maxBasisHistory:]
	}
}

// PredictedBasis returns the average of the recorded basis history, 0
// if no samples have been observed yet.
func (c *Capture) PredictedBasis() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.predictedBasisLocked()
}

func (c *Capture) predictedBasisLocked() float64 {
	if len(c.history) == 0 {
		return 0
	}
	var sum float64
	for _, v := range c.history {
		sum += v
	}
	return sum / float64(len(c.history))
}

// OnFunding folds position * funding info into the running accrual and
// returns the target notional to capture, or 0 if the policy is
// disabled or the signal is below threshold.
func (c *Capture) OnFunding(info types.FundingInfo, position, spotMid float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accrual += position * info.Rate

	if !c.policy.Enabled {
		return 0
	}

	signal := c.predictedBasisLocked() + info.Rate*spotMid
	if absf(signal) < c.policy.FundingThreshold {
		return 0
	}

	target := absf(signal)
	if target > c.policy.MaxNotional {
		target = c.policy.MaxNotional
	}
	return target
}

// Accrual returns the total funding accrual recorded so far.
func (c *Capture) Accrual() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accrual
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
