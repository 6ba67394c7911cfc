package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	drepo "TradePlan/internal/domain/repository"
	"TradePlan/pkg/logger"
)

// Client implements a QuoteSource backed by a trade-stream WebSocket feed.
// It keeps only the last observed price per symbol; the plan pipeline needs
// a current price, not the tick history.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger
	metrics        drepo.Metrics

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
	last      sync.Map
}

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a quote stream client.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, opts ...Option) *Client {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	c := &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.websocketURL
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("quotes connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)
	c.info("quote stream connected")
	return nil
}

// Subscribe subscribes to the configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || !c.connected.Load() {
		return fmt.Errorf("quote stream not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	return nil
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Run consumes the stream until ctx is cancelled, reconnecting on read
// errors. It blocks; callers run it in a goroutine.
func (c *Client) Run(ctx context.Context) {
	go c.pingLoop(ctx)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.readLoop(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.warn("quote stream read failed", err)
			if err := c.Reconnect(ctx); err != nil {
				c.warn("quote stream reconnect failed", err)
			}
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return fmt.Errorf("quote stream conn nil")
		}
		_, b, err := conn.ReadMessage()
		if err != nil {
			c.connected.Store(false)
			return fmt.Errorf("quote stream read: %w", err)
		}
		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil {
			// ignore non-trade frames
			continue
		}
		if m.Type != "trade" {
			continue
		}
		for _, d := range m.Data {
			if d.S == "" || d.P <= 0 {
				continue
			}
			c.last.Store(d.S, d.P)
			if c.metrics != nil {
				c.metrics.RecordLastPrice(d.S, d.P)
			}
		}
	}
}

// LastPrice returns the most recent price seen for a symbol.
func (c *Client) LastPrice(symbol string) (float64, bool) {
	v, ok := c.last.Load(symbol)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

// Reconnect closes and re-establishes the connection.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.connected.Store(false)
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected indicates stream status.
func (c *Client) IsConnected() bool { return c.connected.Load() }

func (c *Client) info(msg string) {
	if c.log != nil {
		c.log.Info(msg)
	}
}

func (c *Client) warn(msg string, err error) {
	if c.log != nil {
		c.log.Warn(msg, logger.Error(err))
	}
}
