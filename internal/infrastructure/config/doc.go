// Package config handles loading and validating mqttconsole configuration.
//
// This package manages:
//   - Loading configuration from YAML (or TOML) files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Every setting has a default, so the console runs without a config file
// against a broker on localhost:1883.
//
// Security Considerations:
//   - Broker credentials should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/mqttconsole.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.Address())
package config
