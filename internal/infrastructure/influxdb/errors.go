package influxdb

import "errors"

// Sentinel errors for the event history store, matched with errors.Is.
var (
	// ErrNotConnected means the client has no live InfluxDB connection.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed means the initial connect or ping failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed wraps synchronous write failures. Batched writes
	// report errors through the SetOnError callback instead.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled means event history is switched off in config.yaml.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
