package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
mqtt:
  broker:
    host: "broker.local"
    port: 1884
  qos: 2
  reconnect:
    interval: 5
sessions:
  queued:
    name: "alpha"
    label: "Alpha"
    subscriptions:
      - topic: "all/#"
        qos: 1
      - topic: "alpha/#"
        qos: 1
console:
  queue_capacity: 64
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Address() != "broker.local:1884" {
		t.Errorf("MQTT.Broker.Address() = %q, want %q", cfg.MQTT.Broker.Address(), "broker.local:1884")
	}

	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}

	if cfg.Sessions.Queued.Name != "alpha" {
		t.Errorf("Sessions.Queued.Name = %q, want %q", cfg.Sessions.Queued.Name, "alpha")
	}

	topics := cfg.Sessions.Queued.Topics()
	if len(topics) != 2 || topics[0] != "all/#" || topics[1] != "alpha/#" {
		t.Errorf("Sessions.Queued.Topics() = %v, want [all/# alpha/#]", topics)
	}

	// Untouched sections keep their defaults
	if cfg.Sessions.Direct.Name != "client2" {
		t.Errorf("Sessions.Direct.Name = %q, want %q", cfg.Sessions.Direct.Name, "client2")
	}

	if cfg.Console.QueueCapacity != 64 {
		t.Errorf("Console.QueueCapacity = %d, want 64", cfg.Console.QueueCapacity)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_TOMLConfig(t *testing.T) {
	content := `
[mqtt]
qos = 0

[mqtt.broker]
host = "toml.local"
port = 1885

[sessions.direct]
name = "bravo"
label = "Bravo"

[[sessions.direct.subscriptions]]
topic = "bravo/#"
qos = 0
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "toml.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "toml.local")
	}

	if cfg.MQTT.QoS != 0 {
		t.Errorf("MQTT.QoS = %d, want 0", cfg.MQTT.QoS)
	}

	if cfg.Sessions.Direct.Label != "Bravo" {
		t.Errorf("Sessions.Direct.Label = %q, want %q", cfg.Sessions.Direct.Label, "Bravo")
	}

	if got := cfg.Sessions.Direct.Topics(); len(got) != 1 || got[0] != "bravo/#" {
		t.Errorf("Sessions.Direct.Topics() = %v, want [bravo/#]", got)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}

	if cfg.MQTT.Broker.Address() != "localhost:1883" {
		t.Errorf("MQTT.Broker.Address() = %q, want %q", cfg.MQTT.Broker.Address(), "localhost:1883")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[mqtt\nqos = "), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid TOML, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "zero reconnect interval",
			mutate:  func(c *Config) { c.MQTT.Reconnect.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "negative retry attempts",
			mutate:  func(c *Config) { c.MQTT.Retry.MaxAttempts = -1 },
			wantErr: true,
		},
		{
			name:    "missing session name",
			mutate:  func(c *Config) { c.Sessions.Direct.Name = "" },
			wantErr: true,
		},
		{
			name:    "duplicate session names",
			mutate:  func(c *Config) { c.Sessions.Direct.Name = c.Sessions.Queued.Name },
			wantErr: true,
		},
		{
			name: "duplicate client IDs",
			mutate: func(c *Config) {
				c.Sessions.Queued.ClientID = "console"
				c.Sessions.Direct.ClientID = "console"
			},
			wantErr: true,
		},
		{
			name:    "fixed client ID",
			mutate:  func(c *Config) { c.Sessions.Queued.ClientID = "console-client1" },
			wantErr: false,
		},
		{
			name:    "no subscriptions",
			mutate:  func(c *Config) { c.Sessions.Queued.Subscriptions = nil },
			wantErr: true,
		},
		{
			name: "empty subscription topic",
			mutate: func(c *Config) {
				c.Sessions.Queued.Subscriptions = []SubscriptionConfig{{Topic: "", QoS: 1}}
			},
			wantErr: true,
		},
		{
			name: "invalid subscription QoS",
			mutate: func(c *Config) {
				c.Sessions.Direct.Subscriptions = []SubscriptionConfig{{Topic: "x/#", QoS: 5}}
			},
			wantErr: true,
		},
		{
			name:    "zero queue capacity",
			mutate:  func(c *Config) { c.Console.QueueCapacity = 0 },
			wantErr: true,
		},
		{
			name:    "negative publish rate",
			mutate:  func(c *Config) { c.Console.PublishRate = -1 },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Bucket = "traffic" },
			wantErr: true,
		},
		{
			name: "influxdb enabled and complete",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Bucket = "traffic"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_SetBroker(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.SetBroker("10.0.0.5:8883"); err != nil {
		t.Fatalf("SetBroker() error = %v", err)
	}
	if cfg.MQTT.Broker.Host != "10.0.0.5" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("broker = %s:%d, want 10.0.0.5:8883", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	}

	if err := cfg.SetBroker("no-port"); err == nil {
		t.Error("SetBroker() expected error for address without port")
	}
	if err := cfg.SetBroker("host:abc"); err == nil {
		t.Error("SetBroker() expected error for non-numeric port")
	}
}

func TestReconnectDelay(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.MQTT.Reconnect.Delay(); got != 10*time.Second {
		t.Errorf("Reconnect.Delay() = %v, want 10s", got)
	}

	cfg.MQTT.Reconnect.Interval = 3
	if got := cfg.MQTT.Reconnect.Delay(); got != 3*time.Second {
		t.Errorf("Reconnect.Delay() = %v, want 3s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("MQTTCONSOLE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("MQTTCONSOLE_MQTT_PORT", "8883")
	t.Setenv("MQTTCONSOLE_MQTT_USERNAME", "testuser")
	t.Setenv("MQTTCONSOLE_MQTT_PASSWORD", "testpass")
	t.Setenv("MQTTCONSOLE_LOG_LEVEL", "debug")
	t.Setenv("MQTTCONSOLE_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("MQTTCONSOLE_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MQTT.Broker.Address() != "localhost:1883" {
		t.Errorf("defaultConfig broker = %q, want localhost:1883", cfg.MQTT.Broker.Address())
	}

	if cfg.MQTT.QoS != 1 {
		t.Errorf("defaultConfig MQTT.QoS = %d, want 1", cfg.MQTT.QoS)
	}

	if cfg.MQTT.Reconnect.Interval != 10 {
		t.Errorf("defaultConfig MQTT.Reconnect.Interval = %d, want 10", cfg.MQTT.Reconnect.Interval)
	}

	if cfg.Console.QueueCapacity != 512 {
		t.Errorf("defaultConfig Console.QueueCapacity = %d, want 512", cfg.Console.QueueCapacity)
	}

	wantQueued := []string{"all/#", "client1/#"}
	wantDirect := []string{"all/#", "client2/#"}
	for i, topic := range cfg.Sessions.Queued.Topics() {
		if topic != wantQueued[i] {
			t.Errorf("Queued topic[%d] = %q, want %q", i, topic, wantQueued[i])
		}
	}
	for i, topic := range cfg.Sessions.Direct.Topics() {
		if topic != wantDirect[i] {
			t.Errorf("Direct topic[%d] = %q, want %q", i, topic, wantDirect[i])
		}
	}
}
