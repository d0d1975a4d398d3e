package hedge

import "context"

// VWAPExecutor splits a total size according to a fixed weight profile
// (e.g. historical volume curve), useful for larger rebalances where an
// even TWAP slice would move the market more than necessary at
// low-volume times of the slicing window.
type VWAPExecutor struct {
	Profile []float64
}

// NewVWAPExecutor builds a VWAP executor from a weight profile. Weights
// need not sum exactly to 1; any remainder is submitted as a final
// slice.
func NewVWAPExecutor(profile []float64) *VWAPExecutor {
	return &VWAPExecutor{Profile: profile}
}

// Execute submits totalSize weighted by e.Profile, submitting any
// remaining size (from profile weights not summing to 1) as a final
// slice.
func (e *VWAPExecutor) Execute(ctx context.Context, submit SliceFunc, totalSize float64) error {
	remaining := totalSize
	for _, weight := range e.Profile {
		sliceSize := totalSize * weight
		if err := submit(ctx, sliceSize); err != nil {
			return err
		}
		remaining -= sliceSize
	}
	if abs(remaining) > 1e-9 {
		if err := submit(ctx, remaining); err != nil {
			return err
		}
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
