package rosbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	customlog "github.com/robocyber/control-station/pkg/log"
)

// Conn is an established bridge connection.
// Send never blocks on the network; Close requests teardown and returns immediately.
type Conn interface {
	Send(data []byte) error
	Close() error
	// Done is closed once the connection is gone, whatever the cause.
	Done() <-chan struct{}
	// Err reports why Done was closed.
	Err() error
}

// Dialer opens bridge connections. It returns once the transport is open or failed.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// InboundHandler receives every decoded frame that is not a status report.
type InboundHandler func(env Envelope, data []byte)

// WebSocketDialer dials rosbridge servers with gorilla/websocket.
type WebSocketDialer struct {
	dialer         *websocket.Dialer
	logger         customlog.Logger
	pingInterval   time.Duration
	writeTimeout   time.Duration
	sendBufferSize int
	readLimit      int64
	onInbound      InboundHandler
}

// Option configures a WebSocketDialer.
type Option func(*WebSocketDialer)

// WithLogger sets the logger used by the dialer and its connections.
func WithLogger(logger customlog.Logger) Option {
	return func(d *WebSocketDialer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHandshakeTimeout bounds the opening handshake.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(d *WebSocketDialer) {
		d.dialer.HandshakeTimeout = timeout
	}
}

// WithPingInterval sets the keepalive ping period.
func WithPingInterval(interval time.Duration) Option {
	return func(d *WebSocketDialer) {
		d.pingInterval = interval
	}
}

// WithWriteTimeout sets the deadline applied to every frame written.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(d *WebSocketDialer) {
		d.writeTimeout = timeout
	}
}

// WithSendBufferSize sets how many outbound frames may be queued.
func WithSendBufferSize(size int) Option {
	return func(d *WebSocketDialer) {
		d.sendBufferSize = size
	}
}

// WithInboundHandler registers a callback for inbound frames.
func WithInboundHandler(handler InboundHandler) Option {
	return func(d *WebSocketDialer) {
		d.onInbound = handler
	}
}

// NewWebSocketDialer creates a dialer with sensible defaults.
func NewWebSocketDialer(opts ...Option) *WebSocketDialer {
	base := *websocket.DefaultDialer
	d := &WebSocketDialer{
		dialer:         &base,
		logger:         customlog.NewNopLogger(),
		pingInterval:   30 * time.Second,
		writeTimeout:   10 * time.Second,
		sendBufferSize: 64,
		readLimit:      1 << 20, // 1MB
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial opens the WebSocket and starts the read and write pumps.
func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	ws, resp, err := d.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to establish WebSocket connection to %s (HTTP %d): %w", endpoint, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to establish WebSocket connection to %s: %w", endpoint, err)
	}

	c := &wsConn{
		ws:           ws,
		endpoint:     endpoint,
		logger:       d.logger.WithField("endpoint", endpoint),
		send:         make(chan []byte, d.sendBufferSize),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		pingInterval: d.pingInterval,
		writeTimeout: d.writeTimeout,
		onInbound:    d.onInbound,
	}

	ws.SetReadLimit(d.readLimit)
	ws.SetReadDeadline(time.Now().Add(c.pingInterval + c.writeTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(c.pingInterval + c.writeTimeout))
		return nil
	})

	go c.readPump()
	go c.writePump()

	c.logger.Debugf("WebSocket connection established")
	return c, nil
}

// wsConn is a Conn over a gorilla websocket. Only writePump writes data frames.
type wsConn struct {
	ws           *websocket.Conn
	endpoint     string
	logger       customlog.Logger
	send         chan []byte
	quit         chan struct{}
	done         chan struct{}
	pingInterval time.Duration
	writeTimeout time.Duration
	onInbound    InboundHandler

	closeOnce  sync.Once
	finishOnce sync.Once
	mu         sync.Mutex
	err        error
}

func (c *wsConn) Send(data []byte) error {
	select {
	case <-c.quit:
		return ErrConnectionClosed
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close asks the write pump to flush queued frames, send a close frame and
// tear the socket down. It does not wait for that to happen.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
	return nil
}

func (c *wsConn) Done() <-chan struct{} { return c.done }

func (c *wsConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// finish records the first termination reason and releases the socket.
func (c *wsConn) finish(reason error) {
	c.finishOnce.Do(func() {
		c.mu.Lock()
		c.err = reason
		c.mu.Unlock()
		close(c.done)
		c.ws.Close()
	})
}

func (c *wsConn) readPump() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.quit:
				c.finish(ErrConnectionClosed)
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warnf("Bridge connection lost: %v", err)
				} else {
					c.logger.Infof("Bridge connection closed: %v", err)
				}
				c.finish(fmt.Errorf("%w: %v", ErrConnectionClosed, err))
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(c.pingInterval + c.writeTimeout))
		c.handleInbound(data)
	}
}

func (c *wsConn) handleInbound(data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		c.logger.Warnf("Ignoring inbound frame: %v", err)
		return
	}

	if env.Op == OpStatus {
		var status StatusMessage
		if err := json.Unmarshal(data, &status); err == nil {
			c.logStatus(status)
		}
		return
	}

	if c.onInbound != nil {
		c.onInbound(env, data)
		return
	}
	c.logger.Debugf("Ignoring inbound '%s' op", env.Op)
}

func (c *wsConn) logStatus(status StatusMessage) {
	switch status.Level {
	case "error":
		c.logger.Errorf("Bridge status [%s]: %s", status.ID, status.Msg)
	case "warning":
		c.logger.Warnf("Bridge status [%s]: %s", status.ID, status.Msg)
	default:
		c.logger.Infof("Bridge status [%s]: %s", status.ID, status.Msg)
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.Errorf("Error writing to bridge: %v", err)
				c.finish(fmt.Errorf("%w: %v", ErrConnectionClosed, err))
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Errorf("Error sending ping: %v", err)
				c.finish(fmt.Errorf("%w: %v", ErrConnectionClosed, err))
				return
			}
		case <-c.quit:
			c.flush()
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := c.write(websocket.CloseMessage, closeMsg); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debugf("Error sending close frame: %v", err)
			}
			c.finish(ErrConnectionClosed)
			return
		case <-c.done:
			return
		}
	}
}

// flush writes whatever is still queued, best-effort.
func (c *wsConn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}
