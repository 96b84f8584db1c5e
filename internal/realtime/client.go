package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/goevery/gigboard/internal/model"
	"go.uber.org/zap"
)

const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = time.Second
)

type Config struct {
	Endpoint          string
	Enabled           bool
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// Conn is the process-wide push connection as seen by views.
type Conn interface {
	Connect(userId, role string)
	On(event string, handler Handler) *Subscription
	Off(event string, subscriptions ...*Subscription)
	Emit(event string, data any)
	IsConnected() bool
	Disconnect()
}

type identity struct {
	userId string
	role   string
}

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

type Client struct {
	logger   *zap.Logger
	config   Config
	dialer   Dialer
	registry *registry

	mu        sync.Mutex
	identity  identity
	session   *session
	transport Transport
}

var _ Conn = (*Client)(nil)

func NewClient(logger *zap.Logger, config Config, dialer Dialer) *Client {
	if config.ReconnectAttempts <= 0 {
		config.ReconnectAttempts = DefaultReconnectAttempts
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}

	return &Client{
		logger:   logger.With(zap.String("endpoint", config.Endpoint)),
		config:   config,
		dialer:   dialer,
		registry: newRegistry(),
	}
}

// Connect starts the connection for the given user. Calling it again for the
// same user while a connection is active or being established does nothing.
func (c *Client) Connect(userId, role string) {
	if userId == "" {
		c.logger.Debug("skipping realtime connect without user id")

		return
	}

	if !c.config.Enabled {
		c.logger.Debug("realtime disabled, not connecting", zap.String("userId", userId))

		return
	}

	if role == "" {
		role = model.RoleOwner
	}

	next := identity{userId, role}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		if c.identity == next {
			return
		}

		c.identity = next
		if c.transport != nil {
			c.logger.Info("realtime identity changed, re-joining", zap.String("userId", userId))

			if err := c.joinLocked(c.transport); err != nil {
				c.logger.Warn("failed to re-join", zap.Error(err))
			}
		}

		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{ctx, cancel}

	c.identity = next
	c.session = s

	go c.run(s)
}

func (c *Client) On(event string, handler Handler) *Subscription {
	if !c.config.Enabled {
		return &Subscription{Event: event, handler: handler}
	}

	return c.registry.add(event, handler)
}

// Off removes the given subscriptions, or every subscription of event when
// none are given.
func (c *Client) Off(event string, subscriptions ...*Subscription) {
	if !c.config.Enabled {
		return
	}

	c.registry.remove(event, subscriptions...)
}

// Emit sends an event when connected. Otherwise the event is dropped.
func (c *Client) Emit(event string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport == nil {
		c.logger.Debug("not connected, dropping event", zap.String("event", event))

		return
	}

	if err := c.sendLocked(c.transport, event, data); err != nil {
		c.logger.Warn("failed to emit event", zap.String("event", event), zap.Error(err))
	}
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.transport != nil
}

// Disconnect drops every subscription, stops reconnecting and closes the
// socket.
func (c *Client) Disconnect() {
	c.registry.clear()

	c.mu.Lock()
	s := c.session
	transport := c.transport
	c.session = nil
	c.transport = nil
	c.identity = identity{}
	c.mu.Unlock()

	if s == nil {
		return
	}

	s.cancel()

	if transport != nil {
		if err := transport.Close(); err != nil {
			c.logger.Debug("failed to close transport", zap.Error(err))
		}
	}

	c.logger.Info("realtime disconnected")
}

func (c *Client) run(s *session) {
	defer func() {
		c.mu.Lock()
		if c.session == s {
			c.session = nil
			c.transport = nil
		}
		c.mu.Unlock()
	}()

	attempts := 0
	for {
		transport, err := c.dialer.Dial(s.ctx, c.config.Endpoint)
		if err == nil {
			err = c.serve(s, transport)
			if s.ctx.Err() != nil {
				return
			}

			if err == nil {
				attempts = 0
			}
		}

		if s.ctx.Err() != nil {
			return
		}

		if attempts >= c.config.ReconnectAttempts {
			c.logger.Error("realtime reconnect attempts exhausted",
				zap.Int("attempts", attempts), zap.Error(err))

			return
		}

		attempts++

		c.logger.Warn("realtime connection lost, reconnecting",
			zap.Int("attempt", attempts),
			zap.Duration("delay", c.config.ReconnectDelay),
			zap.Error(err))

		timer := time.NewTimer(c.config.ReconnectDelay)
		select {
		case <-s.ctx.Done():
			timer.Stop()

			return
		case <-timer.C:
		}
	}
}

// serve joins on a freshly dialed transport and reads from it until it
// fails. It returns nil when the join handshake succeeded.
func (c *Client) serve(s *session, transport Transport) error {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		transport.Close()

		return context.Canceled
	}

	if err := c.joinLocked(transport); err != nil {
		c.mu.Unlock()
		transport.Close()

		return err
	}

	c.transport = transport
	userId := c.identity.userId
	c.mu.Unlock()

	c.logger.Info("realtime connected", zap.String("userId", userId))

	for {
		data, err := transport.Receive()
		if err != nil {
			c.mu.Lock()
			if c.transport == transport {
				c.transport = nil
			}
			c.mu.Unlock()

			transport.Close()

			if s.ctx.Err() == nil {
				c.logger.Warn("realtime transport closed", zap.Error(err))
			}

			return nil
		}

		c.dispatch(data)
	}
}

func (c *Client) joinLocked(transport Transport) error {
	return c.sendLocked(transport, EventJoin, JoinPayload{c.identity.userId, c.identity.role})
}

func (c *Client) sendLocked(transport Transport, event string, data any) error {
	frame, err := NewFrame(event, data)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	return transport.Send(raw)
}

func (c *Client) dispatch(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
		c.logger.Warn("dropping unreadable realtime frame", zap.ByteString("frame", data), zap.Error(err))

		return
	}

	subscriptions := c.registry.snapshot(frame.Event)
	if len(subscriptions) == 0 {
		return
	}

	event, err := DecodeEvent(frame.Event, frame.Data)
	if err != nil {
		c.logger.Warn("dropping malformed realtime event", zap.String("event", frame.Event), zap.Error(err))

		return
	}

	c.logger.Debug("realtime event received",
		zap.String("event", frame.Event),
		zap.Int("subscriptions", len(subscriptions)))

	for _, subscription := range subscriptions {
		subscription.deliver(event)
	}
}
