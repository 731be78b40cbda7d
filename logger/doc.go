// Package logger provides structured logging for wavechat using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.WithComponent("waveform")
//	log.Info("surface ready", logger.Fields("duration", 312.4))
package logger
