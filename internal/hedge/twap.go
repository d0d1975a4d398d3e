// Package hedge implements threshold-triggered inventory rebalancing,
// sliced across time using either a TWAP or VWAP execution profile.
package hedge

import (
	"context"
	"time"
)

// SliceFunc submits one slice of a larger hedge order.
type SliceFunc func(ctx context.Context, size float64) error

// TWAPExecutor splits a total size into equal slices separated by a
// fixed interval.
type TWAPExecutor struct {
	Slices   int
	Interval time.Duration
}

// NewTWAPExecutor builds a TWAP executor, defaulting to a single slice
// if slices is non-positive.
func NewTWAPExecutor(slices int, interval time.Duration) *TWAPExecutor {
	if slices <= 0 {
		slices = 1
	}
	return &TWAPExecutor{Slices: slices, Interval: interval}
}

// Execute submits totalSize split evenly across t.Slices, sleeping
// t.Interval between slices (except after the last one). Stops early
// if ctx is cancelled or submit returns an error.
func (t *TWAPExecutor) Execute(ctx context.Context, submit SliceFunc, totalSize float64) error {
	sliceSize := totalSize / float64(t.Slices)
	for i := 0; i < t.Slices; i++ {
		if err := submit(ctx, sliceSize); err != nil {
			return err
		}
		if i == t.Slices-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.Interval):
		}
	}
	return nil
}
