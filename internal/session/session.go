package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/nerrad567/mqttconsole/internal/infrastructure/config"
	"github.com/nerrad567/mqttconsole/internal/infrastructure/mqtt"
	"github.com/nerrad567/mqttconsole/internal/queue"
)

// Message directions reported to a Recorder.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Client is the part of the MQTT client a session uses.
//
// Subscribe with a nil handler must deliver matching messages through the
// onMessage handler given to the Dialer, once per message however many
// filters match.
type Client interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Close() error
}

// Dialer connects a new client. onMessage must be installed before the
// connection can deliver anything.
type Dialer func(clientID string, onMessage mqtt.MessageHandler) (Client, error)

// Source is the receive side of a queue.
type Source interface {
	Receive(ctx context.Context) (queue.Entry, error)
}

// Recorder is told about every message a session publishes or receives.
type Recorder interface {
	RecordMessage(session, direction, topic string, size int)
}

// Logger defines the logging interface for sessions.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopRecorder struct{}

func (noopRecorder) RecordMessage(string, string, string, int) {}

// Config describes one session identity.
type Config struct {
	// Name identifies the session in logs and prefixes its client ID.
	Name string

	// Subscriptions are registered in order by Start.
	Subscriptions []mqtt.Filter

	// QoS is used for every publish.
	QoS byte
}

// ConfigFrom builds a session Config from file configuration.
func ConfigFrom(sc config.SessionConfig, qos int) Config {
	filters := make([]mqtt.Filter, 0, len(sc.Subscriptions))
	for _, sub := range sc.Subscriptions {
		filters = append(filters, mqtt.Filter{Topic: sub.Topic, QoS: byte(sub.QoS)}) // #nosec G115 -- validated 0..2
	}
	return Config{
		Name:          sc.Name,
		Subscriptions: filters,
		QoS:           byte(qos), // #nosec G115 -- validated 0..2
	}
}

// Stats are message counters for one session.
type Stats struct {
	Published uint64
	Received  uint64
	Dropped   uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRetry sets the retry policy for subscribe and publish.
func WithRetry(p RetryPolicy) Option {
	return func(s *Session) { s.retry = p }
}

// WithPublishRate limits publishes to perSecond. Zero or less means unlimited.
func WithPublishRate(perSecond float64) Option {
	return func(s *Session) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRecorder reports traffic to r.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClientID overrides the generated client ID. An empty id is ignored.
func WithClientID(id string) Option {
	return func(s *Session) { s.clientID = id }
}

// Session is one connected client identity.
//
// Start and Close are called by the owning goroutine. RunPublisher runs on
// the goroutine that owns the outbound queue's receive side.
type Session struct {
	cfg      Config
	dial     Dialer
	inbound  Inbound
	clientID string

	logger   Logger
	retry    RetryPolicy
	limiter  *rate.Limiter
	recorder Recorder

	mu     sync.Mutex
	client Client
	ctx    context.Context

	published atomic.Uint64
	received  atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a session. Nothing is connected until Start.
func New(cfg Config, dial Dialer, inbound Inbound, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg,
		dial:     dial,
		inbound:  inbound,
		logger:   noopLogger{},
		recorder: noopRecorder{},
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clientID == "" {
		s.clientID = mqtt.NewClientID(cfg.Name)
	}
	return s
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.cfg.Name
}

// Start connects and subscribes to every configured pattern in order.
//
// ctx bounds retries and any blocking delivery into the inbound side for
// the lifetime of the session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	client, err := s.dial(s.clientID, s.handleMessage)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnect, s.cfg.Name, err)
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	s.logger.Info("session connected", "session", s.cfg.Name, "client_id", s.clientID)

	for _, f := range s.cfg.Subscriptions {
		err := s.retry.Do(ctx, func() error {
			return client.Subscribe(f.Topic, f.QoS, nil)
		}, s.notifyRetry("subscribe", f.Topic))
		if err != nil {
			return fmt.Errorf("%w: %s: %s: %w", ErrSubscribe, s.cfg.Name, f.Topic, err)
		}
		s.logger.Debug("subscribed", "session", s.cfg.Name, "topic", f.Topic, "qos", f.QoS)
	}

	return nil
}

// handleMessage is the inbound callback. It runs on the client's delivery goroutine.
func (s *Session) handleMessage(topic string, payload []byte) error {
	if !utf8.Valid(payload) {
		s.dropped.Add(1)
		return fmt.Errorf("%w: %d bytes on %s", ErrDecode, len(payload), topic)
	}

	s.received.Add(1)
	s.recorder.RecordMessage(s.cfg.Name, DirectionInbound, topic, len(payload))

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if err := s.inbound.Deliver(ctx, topic, string(payload)); err != nil {
		s.dropped.Add(1)
		return err
	}
	return nil
}

// RunPublisher publishes every entry received from src until it receives
// the quit entry, src is closed, or ctx is cancelled. Those three cases
// return nil. A failed publish returns an ErrPublish error.
func (s *Session) RunPublisher(ctx context.Context, src Source) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return ErrNotStarted
	}

	for {
		entry, err := src.Receive(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				s.logger.Debug("publisher stopped", "session", s.cfg.Name, "reason", err)
				return nil
			}
			return err
		}

		if entry.IsQuit() {
			s.logger.Debug("publisher received quit", "session", s.cfg.Name)
			return nil
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		if err := s.publish(ctx, client, entry); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (s *Session) publish(ctx context.Context, client Client, entry queue.Entry) error {
	payload := []byte(entry.Message)

	err := s.retry.Do(ctx, func() error {
		return client.Publish(entry.Topic, payload, s.cfg.QoS, false)
	}, s.notifyRetry("publish", entry.Topic))
	if err != nil {
		return fmt.Errorf("%w: %s: %s: %w", ErrPublish, s.cfg.Name, entry.Topic, err)
	}

	s.published.Add(1)
	s.recorder.RecordMessage(s.cfg.Name, DirectionOutbound, entry.Topic, len(payload))
	s.logger.Debug("published", "session", s.cfg.Name, "topic", entry.Topic, "bytes", len(payload))
	return nil
}

func (s *Session) notifyRetry(op, topic string) func(error, time.Duration) {
	return func(err error, wait time.Duration) {
		s.logger.Warn("retrying "+op,
			"session", s.cfg.Name,
			"topic", topic,
			"wait", wait,
			"error", err,
		)
	}
}

// Stats returns the session's message counters.
func (s *Session) Stats() Stats {
	return Stats{
		Published: s.published.Load(),
		Received:  s.received.Load(),
		Dropped:   s.dropped.Load(),
	}
}

// Close disconnects the client. It is safe to call before Start and more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("closing session %s: %w", s.cfg.Name, err)
	}
	s.logger.Info("session closed", "session", s.cfg.Name, "stats", s.Stats())
	return nil
}

// MQTTDialer returns a Dialer that connects with the mqtt package and logs
// handler failures and connection changes to logger.
func MQTTDialer(cfg config.MQTTConfig, logger Logger) Dialer {
	if logger == nil {
		logger = noopLogger{}
	}
	return func(clientID string, onMessage mqtt.MessageHandler) (Client, error) {
		client, err := mqtt.Connect(cfg, clientID, onMessage)
		if err != nil {
			return nil, err
		}
		client.SetLogger(logger)
		client.SetOnConnect(func() {
			logger.Info("MQTT connected", "client_id", clientID)
		})
		client.SetOnDisconnect(func(err error) {
			logger.Warn("MQTT disconnected", "client_id", clientID, "error", err)
		})
		return client, nil
	}
}
