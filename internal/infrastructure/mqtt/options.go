package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/mqttconsole/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultAckTimeout bounds the wait for PUBACK, SUBACK and UNSUBACK.
	defaultAckTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// maxClientIDLength keeps IDs within the 23-byte limit older brokers enforce.
	maxClientIDLength = 23

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// NewClientID returns a broker-unique client identifier for a session name.
//
// Two consoles started with the same session names must not kick each other
// off the broker, so a random suffix is appended: "client1-3f2a9c1d".
func NewClientID(name string) string {
	suffix := uuid.NewString()[:8]
	prefixLen := maxClientIDLength - len(suffix) - 1
	if len(name) > prefixLen {
		name = name[:prefixLen]
	}
	return name + "-" + suffix
}

// buildClientOptions creates paho MQTT options from console config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Auto-reconnect capped at the configured interval
//   - TLS configuration (if enabled)
//   - Clean session mode
func buildClientOptions(cfg config.MQTTConfig, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s", scheme, cfg.Broker.Address())
	opts.AddBroker(brokerURL)

	opts.SetClientID(clientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session - no persistent session on the broker
	opts.SetCleanSession(true)

	// The first connect fails fast; later connection losses are retried.
	opts.SetConnectRetry(false)
	opts.SetAutoReconnect(true)
	// paho's reconnect loop starts at 1s and doubles up to this cap.
	opts.SetMaxReconnectInterval(cfg.Reconnect.Delay())

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	// Messages are handed to handlers in arrival order on one goroutine.
	opts.SetOrderMatters(true)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
