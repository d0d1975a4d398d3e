package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mm-engine/mmbot/pkg/types"
)

// SQLiteStorage persists snapshots, trades, and fills to a local
// sqlite database using the pure-Go modernc.org/sqlite driver (no cgo).
type SQLiteStorage struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStorage opens (and migrates) a sqlite database at path. dsn
// is passed straight to database/sql, e.g. "file:mmbot.db?cache=shared".
func NewSQLiteStorage(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite storage: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			ts TEXT, venue TEXT, symbol TEXT,
			bid REAL, ask REAL, bid_size REAL, ask_size REAL
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			ts TEXT, venue TEXT, symbol TEXT, price REAL, size REAL, side TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS fills (
			ts TEXT, venue TEXT, symbol TEXT, order_id TEXT,
			price REAL, size REAL, fee REAL, side TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite storage: %w", err)
		}
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) RecordSnapshot(ctx context.Context, snap types.OrderBookSnapshot) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.Timestamp, snap.Venue, snap.Symbol, bid, ask, bidSize, askSize,
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) RecordTrade(ctx context.Context, trade types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trades VALUES (?, ?, ?, ?, ?, ?)`,
		trade.Timestamp, trade.Venue, trade.Symbol, trade.Price, trade.Size, string(trade.Side),
	)
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) RecordFill(ctx context.Context, fill types.Fill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fills VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fill.Timestamp, fill.Venue, fill.Symbol, fill.OrderID, fill.Price, fill.Size, fill.Fee, string(fill.Side),
	)
	if err != nil {
		return fmt.Errorf("record fill: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
