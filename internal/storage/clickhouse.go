package storage

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/mm-engine/mmbot/pkg/types"
)

// ClickHouseStorage persists snapshots, trades, and fills to a
// ClickHouse cluster, for deployments that need fast analytical queries
// over tick-level history rather than sqlite's single-file model.
type ClickHouseStorage struct {
	conn driver.Conn
}

// NewClickHouseStorage dials a ClickHouse instance at addr (e.g.
// "localhost:9000") and ensures the target tables exist.
func NewClickHouseStorage(addr string) (*ClickHouseStorage, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse storage: %w", err)
	}

	ctx := context.Background()
	schema := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			ts DateTime64(3), venue String, symbol String,
			bid Float64, ask Float64, bid_size Float64, ask_size Float64
		) ENGINE = MergeTree() ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS trades (
			ts DateTime64(3), venue String, symbol String,
			price Float64, size Float64, side String
		) ENGINE = MergeTree() ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS fills (
			ts DateTime64(3), venue String, symbol String, order_id String,
			price Float64, size Float64, fee Float64, side String
		) ENGINE = MergeTree() ORDER BY (symbol, ts)`,
	}
	for _, stmt := range schema {
		if err := conn.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("migrate clickhouse storage: %w", err)
		}
	}

	return &ClickHouseStorage{conn: conn}, nil
}

func (c *ClickHouseStorage) RecordSnapshot(ctx context.Context, snap types.OrderBookSnapshot) error {
	bid, ask, ok := snap.BestBidAsk()
	if !ok {
		return nil
	}
	var bidSize, askSize float64
	if len(snap.Bids) > 0 {
		bidSize = snap.Bids[0].Size
	}
	if len(snap.Asks) > 0 {
		askSize = snap.Asks[0].Size
	}
	err := c.conn.Exec(ctx,
		`INSERT INTO snapshots (ts, venue, symbol, bid, ask, bid_size, ask_size) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.Timestamp, snap.Venue, snap.Symbol, bid, ask, bidSize, askSize,
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

func (c *ClickHouseStorage) RecordTrade(ctx context.Context, trade types.Trade) error {
	err := c.conn.Exec(ctx,
		`INSERT INTO trades (ts, venue, symbol, price, size, side) VALUES (?, ?, ?, ?, ?, ?)`,
		trade.Timestamp, trade.Venue, trade.Symbol, trade.Price, trade.Size, string(trade.Side),
	)
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

func (c *ClickHouseStorage) RecordFill(ctx context.Context, fill types.Fill) error {
	err := c.conn.Exec(ctx,
		`INSERT INTO fills (ts, venue, symbol, order_id, price, size, fee, side) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fill.Timestamp, fill.Venue, fill.Symbol, fill.OrderID, fill.Price, fill.Size, fill.Fee, string(fill.Side),
	)
	if err != nil {
		return fmt.Errorf("record fill: %w", err)
	}
	return nil
}

func (c *ClickHouseStorage) Close() error {
	return c.conn.Close()
}
