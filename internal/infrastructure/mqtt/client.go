package mqtt

import (
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/mqttconsole/internal/infrastructure/config"
)

// MessageHandler receives one inbound message.
//
// It runs on paho's delivery goroutine. Because the client is created with
// SetOrderMatters(true), a handler that blocks holds up every later message
// for the same client. It also stalls paho's inbound packet processing, so
// PUBACK, SUBACK and PINGRESP for that client wait too: a publish made while
// the handler is blocked can fail with ErrPublishFailed once
// defaultAckTimeout passes, and a long enough stall trips the keepalive.
// A returned error is logged and otherwise ignored.
type MessageHandler func(topic string, payload []byte) error

// Logger is the optional logger for handler failures.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Client is one broker connection owned by one console session.
//
// All methods are safe for concurrent use. Subscriptions made through
// Subscribe are restored after every automatic reconnect.
type Client struct {
	client   pahomqtt.Client
	options  *pahomqtt.ClientOptions
	cfg      config.MQTTConfig
	clientID string

	subscriptions map[string]subscription
	subMu         sync.RWMutex

	// mu guards the connection flag, callbacks and logger.
	mu           sync.RWMutex
	connected    bool
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger
}

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// Connect opens a connection to the configured broker as clientID.
//
// onMessage, when non-nil, becomes paho's default publish handler. It is in
// place before the CONNECT packet is sent, so a message arriving between
// connect and subscribe still has somewhere to go.
//
// The first attempt is not retried: ErrConnectionFailed is returned when it
// fails or does not finish within the connect timeout.
func Connect(cfg config.MQTTConfig, clientID string, onMessage MessageHandler) (*Client, error) {
	c := &Client{
		cfg:           cfg,
		clientID:      clientID,
		options:       buildClientOptions(cfg, clientID),
		subscriptions: make(map[string]subscription),
	}

	if onMessage != nil {
		c.options.SetDefaultPublishHandler(c.wrapHandler(onMessage))
	}
	c.options.SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() })
	c.options.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleDisconnect(err) })

	c.client = pahomqtt.NewClient(c.options)
	if err := wait(c.client.Connect(), defaultConnectTimeout, ErrConnectionFailed, c.cfg.Broker.Address()); err != nil {
		c.client.Disconnect(0)
		return nil, err
	}

	// OnConnectHandler runs on its own goroutine and may not have fired yet.
	c.setConnected(true)
	return c, nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) handleConnect() {
	c.setConnected(true)
	c.restoreSubscriptions()

	c.mu.RLock()
	callback := c.onConnect
	c.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (c *Client) handleDisconnect(err error) {
	c.setConnected(false)

	c.mu.RLock()
	callback := c.onDisconnect
	c.mu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// restoreSubscriptions re-sends every tracked subscription. Failures are
// left for the next reconnect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		c.client.Subscribe(sub.topic, sub.qos, c.route(sub.handler))
	}
}

// Close disconnects, giving in-flight work defaultDisconnectQuiesce
// milliseconds. Closing a client that never connected is not an error.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
	return nil
}

// IsConnected reports whether both the wrapper and paho consider the
// connection up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// SetOnConnect sets a callback run on the first connect and every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.mu.Lock()
	c.onConnect = callback
	c.mu.Unlock()
}

// SetOnDisconnect sets a callback run when the connection is lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.mu.Lock()
	c.onDisconnect = callback
	c.mu.Unlock()
}

// SetLogger sets the logger for handler errors and panics.
// Without one they are dropped silently.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// wrapHandler adapts a MessageHandler to paho, recovering panics and
// logging returned errors.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if logger := c.getLogger(); logger != nil {
				logger.Error("MQTT handler panic recovered",
					"client_id", c.clientID,
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()

		err := handler(msg.Topic(), msg.Payload())
		if err == nil {
			return
		}
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT handler returned error",
				"client_id", c.clientID,
				"topic", msg.Topic(),
				"bytes", len(msg.Payload()),
				"error", err,
			)
		}
	}
}
