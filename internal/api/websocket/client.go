package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/monitoring"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// ComputeFunc produces the payload of one metrics frame.
type ComputeFunc func(ctx context.Context, w models.TimeWindow, now time.Time, mode string) (interface{}, error)

// Options tunes a client connection.
type Options struct {
	PushInterval   time.Duration
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	SendBuffer     int
	Now            func() time.Time
}

// Push interval bounds.
const (
	MinPushInterval = 8 * time.Second
	MaxPushInterval = 30 * time.Second
)

func (o *Options) defaults() {
	o.PushInterval = ClampPushInterval(o.PushInterval)
	if o.PingInterval <= 0 {
		o.PingInterval = 20 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 * 1024
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 4
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// ClampPushInterval bounds d to [MinPushInterval, MaxPushInterval]; zero
// selects the maximum.
func ClampPushInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return MaxPushInterval
	case d < MinPushInterval:
		return MinPushInterval
	case d > MaxPushInterval:
		return MaxPushInterval
	}
	return d
}

type params struct {
	window models.TimeWindow
	mode   string
}

// Client is one dashboard connection. A reader goroutine parses parameter
// frames, a poller computes metrics on every interval, and a writer is the
// only goroutine touching the socket for writes.
type Client struct {
	id        string
	unit      string
	stream    string
	frameType string
	conn      *websocket.Conn
	compute   ComputeFunc
	opts      Options
	logger    logger.Logger

	send    chan Message
	params  chan params
	refresh chan struct{}
	cancel  context.CancelFunc
}

// NewClient wraps an upgraded connection. stream labels metrics; frameType is
// the type of the metrics frames.
func NewClient(conn *websocket.Conn, unit, stream, frameType string, compute ComputeFunc, opts Options, log logger.Logger) *Client {
	opts.defaults()
	return &Client{
		id:        uuid.NewString(),
		unit:      unit,
		stream:    stream,
		frameType: frameType,
		conn:      conn,
		compute:   compute,
		opts:      opts,
		logger:    log,
		send:      make(chan Message, opts.SendBuffer),
		params:    make(chan params, 1),
		refresh:   make(chan struct{}, 1),
		cancel:    func() {},
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Serve runs the connection until the client leaves, a write fails, ctx is
// done or the hub shuts down. It closes the socket before returning.
func (c *Client) Serve(ctx context.Context, hub *Hub) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	defer cancel()
	defer c.conn.Close()

	if hub != nil {
		if !hub.add(c) {
			return
		}
		defer hub.remove(c)
	}

	done := make(chan struct{}, 3)
	go func() { c.readLoop(ctx); cancel(); done <- struct{}{} }()
	go func() { c.pollLoop(ctx); done <- struct{}{} }()
	go func() { c.writeLoop(ctx); cancel(); done <- struct{}{} }()

	<-ctx.Done()
	// Unblock the reader.
	_ = c.conn.SetReadDeadline(time.Now())
	for i := 0; i < 3; i++ {
		<-done
	}
}

// notify forwards a hub message and requests an immediate recompute. It
// never blocks the hub.
func (c *Client) notify(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

func (c *Client) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	deadline := func() { _ = c.conn.SetReadDeadline(time.Now().Add(2 * c.opts.PingInterval)) }
	deadline()
	c.conn.SetPongHandler(func(string) error { deadline(); return nil })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				c.logger.Debug("WebSocket read ended", "clientId", c.id, "error", err)
			}
			return
		}
		deadline()

		p, err := parseParams(data)
		if err != nil {
			c.enqueue(ctx, errorFrame(err, c.opts.Now()))
			continue
		}
		// Keep only the newest parameters.
		select {
		case <-c.params:
		default:
		}
		c.params <- p
	}
}

func parseParams(data []byte) (params, error) {
	var req models.MetricsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return params{}, models.NewValidationError("", "invalid JSON: %v", err)
	}
	w, err := req.ToTimeWindow()
	if err != nil {
		return params{}, err
	}
	return params{window: w, mode: req.WorkingMode}, nil
}

func (c *Client) pollLoop(ctx context.Context) {
	var (
		current *params
		ticker  = time.NewTicker(c.opts.PushInterval)
	)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case p := <-c.params:
			current = &p
			ticker.Reset(c.opts.PushInterval)
		case <-ticker.C:
		case <-c.refresh:
		}
		if current == nil {
			continue
		}
		c.enqueue(ctx, c.cycle(ctx, *current))
	}
}

func (c *Client) cycle(ctx context.Context, p params) Message {
	now := c.opts.Now()
	data, err := c.compute(ctx, p.window, now, p.mode)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("WebSocket metrics cycle failed", "clientId", c.id, "unit", c.unit, "error", err)
		}
		return errorFrame(err, now)
	}
	return Message{Type: c.frameType, Data: data, Timestamp: now}
}

func errorFrame(err error, now time.Time) Message {
	msg := Message{Type: TypeError, Error: err.Error(), Timestamp: now}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		msg.Field = verr.Field
	} else {
		msg.Error = "metrics temporarily unavailable"
	}
	return msg
}

func (c *Client) enqueue(ctx context.Context, msg Message) {
	select {
	case c.send <- msg:
	case <-ctx.Done():
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	heartbeat := time.NewTicker(c.opts.PingInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				c.logger.Debug("WebSocket write failed", "clientId", c.id, "error", err)
				return
			}

		case <-heartbeat.C:
			if err := c.write(Message{Type: TypeHeartbeat, Timestamp: c.opts.Now()}); err != nil {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(msg Message) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		return err
	}
	monitoring.RecordFrame(c.stream, msg.Type)
	return nil
}
