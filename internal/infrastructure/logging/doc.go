// Package logging provides structured logging for the bridge.
//
// It wraps log/slog so every entry carries the service name and build
// version, and components tag their entries with a "component" attribute.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("openhab").Info("item state read", "item", "Kitchen_Blind")
//
// Never log the openHAB token, the HomeKit pin or the JWT secret.
package logging
