package bus

import (
	"sync/atomic"
	"testing"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	t.Parallel()

	b := New()
	var calls int32
	b.Subscribe(SnapshotTopic, func(event interface{}) { atomic.AddInt32(&calls, 1) })
	b.Subscribe(SnapshotTopic, func(event interface{}) { atomic.AddInt32(&calls, 1) })

	b.Publish(SnapshotTopic, "x")

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestPublishOnlyHitsMatchingTopic(t *testing.T) {
	t.Parallel()

	b := New()
	var tradeCalls int32
	b.Subscribe(TradeTopic, func(event interface{}) { atomic.AddInt32(&tradeCalls, 1) })

	b.Publish(SnapshotTopic, "x")

	if got := atomic.LoadInt32(&tradeCalls); got != 0 {
		t.Errorf("trade handler should not have fired, calls = %d", got)
	}
}

func TestPublishNoSubscribersNoop(t *testing.T) {
	t.Parallel()
	b := New()
	b.Publish("nobody-listening", 42) // must not panic or block
}
