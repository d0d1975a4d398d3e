package connector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/mm-engine/mmbot/pkg/types"
)

const maxDedupEntries = 5000

// Credentials authenticates REST requests against a live venue.
type Credentials struct {
	APIKey string
	Secret string
}

// LiveConnector places and cancels orders against a venue's REST API.
// Fills are fetched only when PollFills is called (there is no background
// poller) and are deduplicated against a bounded set of previously seen
// fill IDs.
type LiveConnector struct {
	venue   string
	client  *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	logger  *slog.Logger

	mu        sync.Mutex
	seenFills []string
	seenSet   map[string]struct{}
	sinceTS   int64
}

// NewLiveConnector builds a live REST connector. baseURL, creds, and the
// rate limit come from the venue catalogue; logger should already carry
// component context from the caller.
func NewLiveConnector(venue, baseURL string, creds Credentials, reqPerSecond float64, burst int, logger *slog.Logger) *LiveConnector {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("X-API-KEY", creds.APIKey)

	breakerSettings := gobreaker.Settings{
		Name:    fmt.Sprintf("%s-connector", venue),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &LiveConnector{
		venue:   venue,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(reqPerSecond), burst),
		breaker: gobreaker.NewCircuitBreaker[*resty.Response](breakerSettings),
		logger:  logger.With("component", "live_connector", "venue", venue),
		seenSet: make(map[string]struct{}),
	}
}

func (c *LiveConnector) doLocked(ctx context.Context, fn func() (*resty.Response, error)) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	resp, err := c.breaker.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.venue, err)
	}
	return resp, nil
}

func (c *LiveConnector) PlaceOrder(ctx context.Context, order types.Order) (string, error) {
	var result struct {
		OrderID string `json:"order_id"`
	}
	_, err := c.doLocked(ctx, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetBody(order).
			SetResult(&result).
			Post("/orders")
	})
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	return result.OrderID, nil
}

func (c *LiveConnector) CancelOrder(ctx context.Context, symbol, orderID string) error {
	_, err := c.doLocked(ctx, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetQueryParam("symbol", symbol).
			Delete("/orders/" + orderID)
	})
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}

func (c *LiveConnector) CancelAll(ctx context.Context, symbol string) error {
	_, err := c.doLocked(ctx, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetQueryParam("symbol", symbol).
			Delete("/orders")
	})
	if err != nil {
		return fmt.Errorf("cancel all orders for %s: %w", symbol, err)
	}
	return nil
}

func (c *LiveConnector) ListOpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	var orders []types.Order
	_, err := c.doLocked(ctx, func() (*resty.Response, error) {
		req := c.client.R().SetContext(ctx).SetResult(&orders)
		if symbol != "" {
			req.SetQueryParam("symbol", symbol)
		}
		return req.Get("/orders")
	})
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	return orders, nil
}

// PollFills fetches fills since the connector's internal cursor,
// filters out anything already seen, and advances the cursor and dedup
// set.
func (c *LiveConnector) PollFills(ctx context.Context) ([]types.Fill, error) {
	c.mu.Lock()
	since := c.sinceTS
	c.mu.Unlock()

	var raw []types.Fill
	_, err := c.doLocked(ctx, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetQueryParam("since", fmt.Sprintf("%d", since)).
			SetResult(&raw).
			Get("/fills")
	})
	if err != nil {
		return nil, fmt.Errorf("poll fills: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var fresh []types.Fill
	for _, f := range raw {
		key := f.OrderID + "|" + f.Timestamp.String()
		if _, seen := c.seenSet[key]; seen {
			continue
		}
		c.markSeenLocked(key)
		fresh = append(fresh, f)
		if f.Timestamp.UnixNano() > c.sinceTS {
			c.sinceTS = f.Timestamp.UnixNano()
		}
	}
	return fresh, nil
}

func (c *LiveConnector) markSeenLocked(key string) {
	c.seenSet[key] = struct{}{}
	c.seenFills = append(c.seenFills, key)
	if len(c.seenFills) > maxDedupEntries {
		oldest := c.seenFills[0]
		c.seenFills = c.seenFills[1:]
		delete(c.seenSet, oldest)
	}
}

func (c *LiveConnector) FetchBalance(ctx context.Context, asset string) (float64, error) {
	var result struct {
		Free float64 `json:"free"`
	}
	_, err := c.doLocked(ctx, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetQueryParam("asset", asset).
			SetResult(&result).
			Get("/balance")
	})
	if err != nil {
		return 0, fmt.Errorf("fetch balance for %s: %w", asset, err)
	}
	return result.Free, nil
}
