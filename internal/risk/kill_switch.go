package risk

import "sync"

// KillSwitch is a latching circuit breaker: once its trigger condition
// is met it fires its callback exactly once and stays tripped until
// Reset is called.
type KillSwitch struct {
	mu        sync.Mutex
	threshold float64
	tripped   bool
	onTrigger func(reason string)
}

// NewKillSwitch creates a kill switch that fires onTrigger the first
// time Check observes a value whose magnitude exceeds threshold.
func NewKillSwitch(threshold float64, onTrigger func(reason string)) *KillSwitch {
	return &KillSwitch{
		threshold: threshold,
		onTrigger: onTrigger,
	}
}

// Check evaluates value against the threshold and trips the switch if
// it has not already been tripped. Returns true if this call caused the
// trip.
func (k *KillSwitch) Check(value float64, reason string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	abs := value
	if abs < 0 {
		abs = -abs
	}
	if k.tripped || abs <= k.threshold {
		return false
	}

	k.tripped = true
	if k.onTrigger != nil {
		k.onTrigger(reason)
	}
	return true
}

// Tripped reports whether the switch has fired.
func (k *KillSwitch) Tripped() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tripped
}

// Reset clears the latch so the switch can fire again.
func (k *KillSwitch) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tripped = false
}
