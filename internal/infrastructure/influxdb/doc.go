// Package influxdb provides InfluxDB connectivity for OmniBridge.
//
// It wraps the official influxdb-client-go v2 library with OmniBridge-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Controller battery readings
//   - Session counters (requests, notifications, disconnects)
//   - Object telemetry (unit levels, thermostat temperatures)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "omnibridge",
//	    Bucket: "metrics",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write telemetry from the update loop
//	client.WriteBatteryReading("192.168.1.50:4369", 255)
//	client.WriteSessionStats("192.168.1.50:4369", session.Stats())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
