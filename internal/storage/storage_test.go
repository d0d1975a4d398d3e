package storage

import (
	"context"
	"testing"

	"github.com/mm-engine/mmbot/pkg/types"
)

func TestNewDefaultsToNoop(t *testing.T) {
	t.Parallel()
	s, err := New("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*NoopStorage); !ok {
		t.Errorf("expected NoopStorage for empty backend, got %T", s)
	}
}

func TestNewUnknownBackendErrors(t *testing.T) {
	t.Parallel()
	_, err := New("mongo", "")
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNoopStorageDiscardsWrites(t *testing.T) {
	t.Parallel()
	s := &NoopStorage{}
	ctx := context.Background()
	if err := s.RecordSnapshot(ctx, types.OrderBookSnapshot{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.RecordTrade(ctx, types.Trade{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.RecordFill(ctx, types.Fill{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSQLiteStorageInMemory(t *testing.T) {
	t.Parallel()
	s, err := New(BackendSQLite, ":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	snap := types.OrderBookSnapshot{
		Venue:  "kucoin",
		Symbol: "BTC-USDT",
		Bids:   []types.OrderBookLevel{{Price: 99, Size: 1}},
		Asks:   []types.OrderBookLevel{{Price: 101, Size: 1}},
	}
	if err := s.RecordSnapshot(ctx, snap); err != nil {
		t.Errorf("record snapshot: %v", err)
	}
	if err := s.RecordTrade(ctx, types.Trade{Venue: "kucoin", Symbol: "BTC-USDT", Price: 100, Size: 1}); err != nil {
		t.Errorf("record trade: %v", err)
	}
	if err := s.RecordFill(ctx, types.Fill{Venue: "kucoin", Symbol: "BTC-USDT", OrderID: "1", Price: 100, Size: 1}); err != nil {
		t.Errorf("record fill: %v", err)
	}
}
