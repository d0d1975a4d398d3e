package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mm-engine/mmbot/internal/bus"
	"github.com/mm-engine/mmbot/pkg/types"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// WireMessage is the minimal shape this feed expects a venue to emit:
// either a book snapshot or a trade, identified by type. Real venues'
// message shapes vary; a venue-specific adapter translates on top of
// this before handing messages to the feed, or a venue can be wired
// directly if its wire format already matches.
type WireMessage struct {
	Type   string                 `json:"type"`
	Symbol string                 `json:"symbol"`
	Bids   []types.OrderBookLevel `json:"bids,omitempty"`
	Asks   []types.OrderBookLevel `json:"asks,omitempty"`
	Price  float64                `json:"price,omitempty"`
	Size   float64                `json:"size,omitempty"`
	Side   string                 `json:"side,omitempty"`
}

// LiveFeed streams book/trade updates from a venue's websocket
// endpoint, reconnecting with exponential backoff (1s-30s) and sending
// periodic pings to keep the connection alive.
type LiveFeed struct {
	venue        string
	symbol       string
	url          string
	subscribeMsg []byte
	pingInterval time.Duration
	bus          *bus.Bus
	logger       *slog.Logger
}

// NewLiveFeed builds a live websocket feed. subscribeMsg is sent
// immediately after connecting (nil to skip).
func NewLiveFeed(venue, symbol, url string, subscribeMsg []byte, pingInterval time.Duration, b *bus.Bus, logger *slog.Logger) *LiveFeed {
	if pingInterval <= 0 {
		pingInterval = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveFeed{
		venue:        venue,
		symbol:       symbol,
		url:          url,
		subscribeMsg: subscribeMsg,
		pingInterval: pingInterval,
		bus:          b,
		logger:       logger.With("component", "live_feed", "venue", venue, "symbol", symbol),
	}
}

// Run connects and streams until ctx is cancelled, reconnecting with
// exponential backoff on any error.
func (f *LiveFeed) Run(ctx context.Context, store *InMemoryFeedStore) {
	backoff := minBackoff
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.stream(ctx, store); err != nil {
			f.logger.Error("feed stream error", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = minBackoff
	}
}

func (f *LiveFeed) stream(ctx context.Context, store *InMemoryFeedStore) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}
	defer conn.Close()

	if f.subscribeMsg != nil {
		if err := conn.WriteMessage(websocket.TextMessage, f.subscribeMsg); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	conn.SetPongHandler(func(string) error { return nil })

	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			var msg WireMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				f.logger.Warn("malformed feed message", "error", err)
				continue
			}
			f.handleMessage(store, msg)
		}
	}()

	pingTicker := time.NewTicker(f.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			return err
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

func (f *LiveFeed) handleMessage(store *InMemoryFeedStore, msg WireMessage) {
	switch msg.Type {
	case "snapshot":
		snap := types.OrderBookSnapshot{
			Venue:     f.venue,
			Symbol:    msg.Symbol,
			Bids:      msg.Bids,
			Asks:      msg.Asks,
			Timestamp: time.Now(),
		}
		store.UpdateSnapshot(snap)
		f.bus.Publish(bus.SnapshotTopic, snap)
	case "trade":
		side := types.Buy
		if msg.Side == string(types.Sell) {
			side = types.Sell
		}
		trade := types.Trade{
			Venue:     f.venue,
			Symbol:    msg.Symbol,
			Price:     msg.Price,
			Size:      msg.Size,
			Side:      side,
			Timestamp: time.Now(),
		}
		f.bus.Publish(bus.TradeTopic, trade)
	default:
		f.logger.Debug("unhandled feed message type", "type", msg.Type)
	}
}
