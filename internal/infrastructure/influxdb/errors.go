package influxdb

import "errors"

// Sentinel errors for telemetry operations, matched with errors.Is.
var (
	// ErrNotConnected: the client has no live server connection.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed: the server did not answer the startup health
	// probe.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled: telemetry is switched off in configuration; Connect
	// refuses rather than returning a dead client.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
