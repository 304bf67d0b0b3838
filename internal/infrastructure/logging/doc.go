// Package logging provides structured logging for mqttconsole.
//
// This package wraps Go's standard log/slog package so that every
// component logs with the same fields and level filtering.
//
// The interactive session owns stdout, so logs default to stderr at
// "warn" level. Raise the level with --log-level or MQTTCONSOLE_LOG_LEVEL
// when diagnosing broker problems.
//
// # Configuration
//
//	logging:
//	  level: "warn"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("session started", "client_id", id)
//	logger.Error("publish failed", "error", err)
package logging
