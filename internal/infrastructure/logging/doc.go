// Package logging provides structured logging for PhotoFrame Core.
//
// This package wraps Go's standard log/slog package so that every
// component logs with the same handler, level and default fields.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Sending the daemon SIGUSR1 toggles debug logging without a restart.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("gallery").Info("scan complete", "files", n)
//
// Never log broker passwords or InfluxDB tokens.
package logging
