package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultQueueCapacity is the capacity of both console queues.
const DefaultQueueCapacity = 512

// Config is the root configuration structure for mqttconsole.
// All configuration is loaded from YAML or TOML and can be overridden by environment variables.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
	Sessions SessionsConfig `yaml:"sessions" toml:"sessions"`
	Console  ConsoleConfig  `yaml:"console" toml:"console"`
	InfluxDB InfluxDBConfig `yaml:"influxdb" toml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings shared by both sessions.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker" toml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth" toml:"auth"`
	QoS       int                 `yaml:"qos" toml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect" toml:"reconnect"`
	Retry     MQTTRetryConfig     `yaml:"retry" toml:"retry"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
	TLS  bool   `yaml:"tls" toml:"tls"`
}

// Address returns the broker as host:port.
func (b MQTTBrokerConfig) Address() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	// Interval is the longest wait in seconds between reconnect attempts
	// after a lost connection.
	Interval int `yaml:"interval" toml:"interval"`
}

// Delay returns Interval as a Duration.
func (r MQTTReconnectConfig) Delay() time.Duration {
	return time.Duration(r.Interval) * time.Second
}

// MQTTRetryConfig controls retries of failed subscribe and publish calls.
// MaxAttempts of 0 means a failure is fatal on the first error.
type MQTTRetryConfig struct {
	MaxAttempts     int `yaml:"max_attempts" toml:"max_attempts"`
	InitialInterval int `yaml:"initial_interval" toml:"initial_interval"`
	MaxInterval     int `yaml:"max_interval" toml:"max_interval"`
}

// SessionsConfig holds the two client identities run by the console.
//
// Queued is backgrounded: its inbound messages go through the inbound queue
// and it publishes everything typed at the console. Direct prints its
// inbound messages straight to the output.
type SessionsConfig struct {
	Queued SessionConfig `yaml:"queued" toml:"queued"`
	Direct SessionConfig `yaml:"direct" toml:"direct"`
}

// SessionConfig describes one client identity.
type SessionConfig struct {
	// Name prefixes the MQTT client ID (a random suffix keeps it unique).
	Name string `yaml:"name" toml:"name"`

	// ClientID, when set, is used as the MQTT client ID as is.
	ClientID string `yaml:"client_id" toml:"client_id"`

	// Label is printed in front of every received message, e.g. "Client 1".
	Label string `yaml:"label" toml:"label"`

	// Subscriptions are subscribed to in order when the session starts.
	Subscriptions []SubscriptionConfig `yaml:"subscriptions" toml:"subscriptions"`
}

// SubscriptionConfig is one topic pattern and the QoS to subscribe with.
type SubscriptionConfig struct {
	Topic string `yaml:"topic" toml:"topic"`
	QoS   int    `yaml:"qos" toml:"qos"`
}

// Topics returns the subscription patterns in order.
func (s SessionConfig) Topics() []string {
	topics := make([]string, 0, len(s.Subscriptions))
	for _, sub := range s.Subscriptions {
		topics = append(topics, sub.Topic)
	}
	return topics
}

// ConsoleConfig contains settings for the interactive command loop.
type ConsoleConfig struct {
	QueueCapacity int `yaml:"queue_capacity" toml:"queue_capacity"`

	// PublishRate limits outbound publishes per second. 0 means unlimited.
	PublishRate float64 `yaml:"publish_rate" toml:"publish_rate"`

	// Color enables highlighting of the banner and notices on terminals.
	Color bool `yaml:"color" toml:"color"`
}

// InfluxDBConfig contains InfluxDB connection settings for traffic telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	URL           string `yaml:"url" toml:"url"`
	Token         string `yaml:"token" toml:"token"`
	Org           string `yaml:"org" toml:"org"`
	Bucket        string `yaml:"bucket" toml:"bucket"`
	BatchSize     int    `yaml:"batch_size" toml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval" toml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
}

// Load reads configuration from a YAML or TOML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. File values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment variables follow the pattern: MQTTCONSOLE_SECTION_KEY
// For example: MQTTCONSOLE_MQTT_HOST, MQTTCONSOLE_LOG_LEVEL
//
// Load does not validate; callers apply their own overrides (CLI flags)
// and then call Validate.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				Interval: 10,
			},
			Retry: MQTTRetryConfig{
				MaxAttempts:     0,
				InitialInterval: 1,
				MaxInterval:     30,
			},
		},
		Sessions: SessionsConfig{
			Queued: SessionConfig{
				Name:  "client1",
				Label: "Client 1",
				Subscriptions: []SubscriptionConfig{
					{Topic: "all/#", QoS: 1},
					{Topic: "client1/#", QoS: 1},
				},
			},
			Direct: SessionConfig{
				Name:  "client2",
				Label: "Client 2",
				Subscriptions: []SubscriptionConfig{
					{Topic: "all/#", QoS: 1},
					{Topic: "client2/#", QoS: 1},
				},
			},
		},
		Console: ConsoleConfig{
			QueueCapacity: DefaultQueueCapacity,
			Color:         true,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MQTTCONSOLE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("MQTTCONSOLE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MQTTCONSOLE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("MQTTCONSOLE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MQTTCONSOLE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("MQTTCONSOLE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// InfluxDB
	if v := os.Getenv("MQTTCONSOLE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// SetBroker overrides the broker host and port from a host:port string.
func (c *Config) SetBroker(address string) error {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid broker address %q: %w", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid broker port %q: %w", portStr, err)
	}
	c.MQTT.Broker.Host = host
	c.MQTT.Broker.Port = port
	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.Interval < 1 {
		errs = append(errs, "mqtt.reconnect.interval must be at least 1 second")
	}
	if c.MQTT.Retry.MaxAttempts < 0 {
		errs = append(errs, "mqtt.retry.max_attempts cannot be negative")
	}

	// Sessions validation
	errs = append(errs, c.Sessions.Queued.validate("sessions.queued")...)
	errs = append(errs, c.Sessions.Direct.validate("sessions.direct")...)
	if c.Sessions.Queued.Name != "" && c.Sessions.Queued.Name == c.Sessions.Direct.Name {
		errs = append(errs, "sessions.queued.name and sessions.direct.name must differ")
	}
	if c.Sessions.Queued.ClientID != "" && c.Sessions.Queued.ClientID == c.Sessions.Direct.ClientID {
		errs = append(errs, "sessions.queued.client_id and sessions.direct.client_id must differ")
	}

	// Console validation
	if c.Console.QueueCapacity < 1 {
		errs = append(errs, "console.queue_capacity must be at least 1")
	}
	if c.Console.PublishRate < 0 {
		errs = append(errs, "console.publish_rate cannot be negative")
	}

	// InfluxDB validation (only when enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (s SessionConfig) validate(prefix string) []string {
	var errs []string
	if s.Name == "" {
		errs = append(errs, prefix+".name is required")
	}
	if len(s.Subscriptions) == 0 {
		errs = append(errs, prefix+".subscriptions must not be empty")
	}
	for i, sub := range s.Subscriptions {
		if sub.Topic == "" {
			errs = append(errs, fmt.Sprintf("%s.subscriptions[%d].topic is required", prefix, i))
		}
		if sub.QoS < 0 || sub.QoS > 2 {
			errs = append(errs, fmt.Sprintf("%s.subscriptions[%d].qos must be 0, 1, or 2", prefix, i))
		}
	}
	return errs
}
