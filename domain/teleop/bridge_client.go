package teleop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robocyber/control-station/pkg/config"
	customlog "github.com/robocyber/control-station/pkg/log"
	"github.com/robocyber/control-station/pkg/msgs"
	"github.com/robocyber/control-station/pkg/rosbridge"
)

// DefaultConnectTimeout bounds a connect attempt when the caller's context has no deadline.
const DefaultConnectTimeout = 5 * time.Second

// LinkStats is a point-in-time view of the bridge link.
type LinkStats struct {
	State             ConnectionState
	Endpoint          string
	ConnectedSince    time.Time
	CommandsPublished uint64
	CommandsDropped   uint64
	LastCommandAt     time.Time
	Topics            []string
}

// BridgeClient owns the connection to a rosbridge server and publishes drive
// commands on it. All state changes happen under mu; every connect attempt and
// every teardown bumps generation so callbacks from an older connection are ignored.
// Events are emitted under eventMu, which is taken before mu is released, so the
// sink sees them in transition order. The sink must not call back into the client.
type BridgeClient struct {
	dialer         rosbridge.Dialer
	logger         customlog.Logger
	metrics        Metrics
	sink           EventSink
	topic          string
	connectTimeout time.Duration

	mu          sync.Mutex
	eventMu     sync.Mutex
	state       atomic.Int32
	generation  uint64
	endpoint    string
	conn        rosbridge.Conn
	registry    *rosbridge.TopicRegistry
	publisher   *rosbridge.Publisher
	cancelDial  context.CancelFunc
	pending     chan error
	connectedAt time.Time

	published     atomic.Uint64
	dropped       atomic.Uint64
	lastCommandAt atomic.Int64
}

// ClientOption configures a BridgeClient.
type ClientOption func(*BridgeClient)

// WithDialer replaces the default WebSocket dialer.
func WithDialer(dialer rosbridge.Dialer) ClientOption {
	return func(c *BridgeClient) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger customlog.Logger) ClientOption {
	return func(c *BridgeClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics Metrics) ClientOption {
	return func(c *BridgeClient) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// WithEventSink sets where console lines are sent. nil disables events.
func WithEventSink(sink EventSink) ClientOption {
	return func(c *BridgeClient) {
		c.sink = sink
	}
}

// WithCmdVelTopic overrides the velocity command topic.
func WithCmdVelTopic(topic string) ClientOption {
	return func(c *BridgeClient) {
		if topic != "" {
			c.topic = topic
		}
	}
}

// WithConnectTimeout bounds each connect attempt.
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(c *BridgeClient) {
		if timeout > 0 {
			c.connectTimeout = timeout
		}
	}
}

// NewBridgeClient creates a disconnected client.
func NewBridgeClient(opts ...ClientOption) *BridgeClient {
	c := &BridgeClient{
		logger:         customlog.NewNopLogger(),
		metrics:        nopMetrics{},
		topic:          msgs.CmdVelTopic,
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = rosbridge.NewWebSocketDialer(rosbridge.WithLogger(c.logger))
	}
	return c
}

// ConnectAsync starts a connect attempt and returns immediately with the client
// in the Connecting state. Exactly one result is delivered on the returned channel:
// nil once connected, or the reason the attempt failed.
func (c *BridgeClient) ConnectAsync(ctx context.Context, endpoint string) <-chan error {
	result := make(chan error, 1)

	c.mu.Lock()
	switch c.State() {
	case Connecting:
		c.mu.Unlock()
		c.logger.Warnf("Connect to %s rejected: attempt already in progress", endpoint)
		result <- ErrConnectInProgress
		return result
	case Connected:
		c.mu.Unlock()
		c.logger.Warnf("Connect to %s rejected: already connected", endpoint)
		result <- ErrAlreadyConnected
		return result
	}

	if err := config.ValidateBridgeURL(endpoint); err != nil {
		c.eventMu.Lock()
		c.mu.Unlock()
		defer c.eventMu.Unlock()
		err = &ConnectError{Endpoint: endpoint, Err: fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)}
		c.logger.Errorf("Failed to connect: %v", err)
		c.metrics.IncConnectFailures()
		c.emit(EventConnectFailed(err))
		result <- err
		return result
	}

	c.generation++
	gen := c.generation
	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	c.setState(Connecting)
	c.endpoint = endpoint
	c.cancelDial = cancel
	c.pending = result
	c.eventMu.Lock()
	c.mu.Unlock()

	c.logger.Infof("Connecting to ROS bridge at %s", endpoint)
	c.emit(EventConnecting(endpoint))
	c.eventMu.Unlock()

	go c.dial(dialCtx, cancel, gen, endpoint, result)
	return result
}

// Connect starts a connect attempt and waits for its result.
func (c *BridgeClient) Connect(ctx context.Context, endpoint string) error {
	return <-c.ConnectAsync(ctx, endpoint)
}

func (c *BridgeClient) dial(ctx context.Context, cancel context.CancelFunc, gen uint64, endpoint string, result chan<- error) {
	conn, err := c.dialer.Dial(ctx, endpoint)
	cancel()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		c.logger.Debugf("Discarding stale connect attempt to %s", endpoint)
		return
	}

	var registry *rosbridge.TopicRegistry
	var publisher *rosbridge.Publisher
	if err == nil {
		registry = rosbridge.NewTopicRegistry()
		publisher = rosbridge.NewPublisher(conn, registry)
		if advErr := publisher.Advertise(c.topic, msgs.TwistType); advErr != nil {
			conn.Close()
			err = advErr
		}
	}

	if err != nil {
		c.generation++
		c.setState(Disconnected)
		c.endpoint = ""
		c.cancelDial = nil
		c.pending = nil
		c.eventMu.Lock()
		c.mu.Unlock()
		defer c.eventMu.Unlock()

		connErr := &ConnectError{Endpoint: endpoint, Err: err}
		c.logger.Errorf("Failed to connect: %v", connErr)
		c.metrics.IncConnectFailures()
		c.emit(EventConnectFailed(connErr))
		result <- connErr
		return
	}

	c.conn = conn
	c.registry = registry
	c.publisher = publisher
	c.connectedAt = time.Now()
	c.cancelDial = nil
	c.pending = nil
	c.setState(Connected)
	c.eventMu.Lock()
	c.mu.Unlock()

	c.logger.Infof("Connected to ROS bridge at %s, advertised %s", endpoint, c.topic)
	c.metrics.IncConnections()
	c.metrics.SetConnectionStatus(1)
	c.emit(EventConnected)
	result <- nil
	c.eventMu.Unlock()

	go c.watch(gen, conn)
}

// watch turns a transport that closed on its own into a Disconnected state.
func (c *BridgeClient) watch(gen uint64, conn rosbridge.Conn) {
	<-conn.Done()

	c.mu.Lock()
	if gen != c.generation || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.generation++
	if c.registry != nil {
		c.registry.Reset()
	}
	c.clearLocked()
	c.eventMu.Lock()
	c.mu.Unlock()
	defer c.eventMu.Unlock()

	c.logger.Warnf("Connection to ROS bridge server closed: %v", conn.Err())
	c.metrics.IncDisconnects()
	c.metrics.SetConnectionStatus(0)
	c.emit(EventClosed)
}

// Disconnect tears down the current connection or aborts a pending connect.
// It does not wait for the transport to finish closing. Calling it while
// Disconnected does nothing.
func (c *BridgeClient) Disconnect() {
	c.mu.Lock()
	if c.State() == Disconnected {
		c.mu.Unlock()
		return
	}
	c.generation++
	endpoint := c.endpoint
	conn := c.conn
	registry := c.registry
	publisher := c.publisher
	cancel := c.cancelDial
	pending := c.pending
	c.clearLocked()
	c.eventMu.Lock()
	c.mu.Unlock()
	defer c.eventMu.Unlock()

	c.logger.Infof("Disconnecting from ROS bridge at %s", endpoint)
	c.emit(EventDisconnecting)

	if cancel != nil {
		cancel()
	}
	if pending != nil {
		pending <- ErrConnectAborted
	}
	if publisher != nil {
		if err := publisher.Unadvertise(c.topic); err != nil {
			c.logger.Debugf("Unadvertise %s failed: %v", c.topic, err)
		}
	}
	if registry != nil {
		registry.Reset()
	}
	if conn != nil {
		conn.Close()
		c.metrics.IncDisconnects()
	}
	c.metrics.SetConnectionStatus(0)

	c.logger.Infof("Robot disconnected")
	c.emit(EventDisconnected)
}

// clearLocked detaches everything tied to a connection. Caller holds mu.
// The registry is left for the caller to reset once the topic has been withdrawn.
func (c *BridgeClient) clearLocked() {
	c.setState(Disconnected)
	c.endpoint = ""
	c.conn = nil
	c.registry = nil
	c.publisher = nil
	c.cancelDial = nil
	c.pending = nil
	c.connectedAt = time.Time{}
}

// PublishDriveCommand publishes a joystick vector with unit speed limits.
func (c *BridgeClient) PublishDriveCommand(x, y float64) {
	c.PublishScaledDriveCommand(x, y, 1.0, 1.0)
}

// PublishScaledDriveCommand publishes a joystick vector scaled to the given limits.
// Nothing is sent unless the client is Connected.
func (c *BridgeClient) PublishScaledDriveCommand(x, y, maxLinearSpeed, maxAngularSpeed float64) {
	c.PublishCmdVel(msgs.TwistFromJoystick(x, y, maxLinearSpeed, maxAngularSpeed))
}

// PublishCmdVel publishes twist on the velocity topic. Nothing is sent unless
// the client is Connected. Transport failures are logged and counted, not returned.
func (c *BridgeClient) PublishCmdVel(twist msgs.Twist) {
	c.mu.Lock()
	if c.State() != Connected || c.publisher == nil {
		c.mu.Unlock()
		return
	}
	publisher := c.publisher
	c.mu.Unlock()

	if err := publisher.Publish(c.topic, twist); err != nil {
		c.logger.Warnf("Dropped drive command: %v", err)
		c.dropped.Add(1)
		c.metrics.IncCommandsDropped()
		return
	}
	c.published.Add(1)
	c.lastCommandAt.Store(time.Now().UnixNano())
	c.metrics.IncCommandsPublished()
}

// ConnectionStatus reports whether the client is Connected.
func (c *BridgeClient) ConnectionStatus() bool {
	return c.State() == Connected
}

// State returns the current lifecycle state.
func (c *BridgeClient) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Endpoint returns the endpoint of the current or pending connection, or "".
func (c *BridgeClient) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// Stats returns a snapshot of the link for diagnostics.
func (c *BridgeClient) Stats() LinkStats {
	c.mu.Lock()
	stats := LinkStats{
		State:          c.State(),
		Endpoint:       c.endpoint,
		ConnectedSince: c.connectedAt,
		Topics:         []string{},
	}
	if c.registry != nil {
		stats.Topics = c.registry.GetAllTopics()
	}
	c.mu.Unlock()

	stats.CommandsPublished = c.published.Load()
	stats.CommandsDropped = c.dropped.Load()
	if ns := c.lastCommandAt.Load(); ns != 0 {
		stats.LastCommandAt = time.Unix(0, ns)
	}
	return stats
}

func (c *BridgeClient) setState(s ConnectionState) {
	c.state.Store(int32(s))
}

// emit forwards message to the sink. A panicking sink is logged and ignored.
func (c *BridgeClient) emit(message string) {
	if c.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("Event sink panicked on %q: %v", message, r)
		}
	}()
	c.sink(message)
}
