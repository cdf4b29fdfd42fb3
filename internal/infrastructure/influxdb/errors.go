package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed covers rejected points. Delivery failures are
	// reported asynchronously through SetOnError.
	ErrWriteFailed = errors.New("influxdb: write failed")

	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
