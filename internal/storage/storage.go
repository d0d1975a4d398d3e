// Package storage persists order book snapshots and trades behind a
// pluggable backend, selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/mm-engine/mmbot/pkg/types"
)

// Storage is the persistence surface every backend implements.
type Storage interface {
	RecordSnapshot(ctx context.Context, snapshot types.OrderBookSnapshot) error
	RecordTrade(ctx context.Context, trade types.Trade) error
	RecordFill(ctx context.Context, fill types.Fill) error
	Close() error
}

const (
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
)

// New builds the configured storage backend from a backend name and
// DSN. An empty backend name returns a NoopStorage.
func New(backend, dsn string) (Storage, error) {
	switch backend {
	case "", "noop":
		return &NoopStorage{}, nil
	case BackendSQLite:
		return NewSQLiteStorage(dsn)
	case BackendClickHouse:
		return NewClickHouseStorage(dsn)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// NoopStorage discards everything. Used when persistence is disabled.
type NoopStorage struct{}

func (NoopStorage) RecordSnapshot(ctx context.Context, snapshot types.OrderBookSnapshot) error {
	return nil
}
func (NoopStorage) RecordTrade(ctx context.Context, trade types.Trade) error { return nil }
func (NoopStorage) RecordFill(ctx context.Context, fill types.Fill) error    { return nil }
func (NoopStorage) Close() error                                            { return nil }
