// Package logging provides structured logging for blueland.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the daemon.
//
// # Features
//
//   - Text output for terminals (default), JSON for machine consumption
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("agent registered", "path", agentPath)
//	logger.Error("failed to connect", "error", err)
package logging
