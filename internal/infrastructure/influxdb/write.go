package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/stonefield-labs/omnibridge/internal/bridges/omni"
)

// WriteObjectMetric writes a single numeric reading for a controller object.
//
// This is the primary method for recording object telemetry pulled from a
// controller. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - controller: Controller address (e.g., "192.168.1.50:4369")
//   - kind: Object kind ("zone", "unit", "area", ...)
//   - number: Object number on the controller
//   - measurement: The metric name (e.g., "level", "current_temperature")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteObjectMetric("192.168.1.50:4369", "unit", 3, "level", 75)
//	client.WriteObjectMetric("192.168.1.50:4369", "thermostat", 1, "current_temperature", 21.5)
func (c *Client) WriteObjectMetric(controller string, kind string, number int, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"object_metrics",
		map[string]string{
			"controller":  controller,
			"kind":        kind,
			"number":      strconv.Itoa(number),
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBatteryReading writes a controller battery level measurement.
//
// The update loop polls the battery reading on each cycle; this records
// it for trend analysis and low-battery alerting downstream.
//
// Parameters:
//   - controller: Controller address
//   - reading: Raw battery reading reported by the controller
func (c *Client) WriteBatteryReading(controller string, reading int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"controller_battery",
		map[string]string{
			"controller": controller,
		},
		map[string]interface{}{
			"reading": reading,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSessionStats writes a snapshot of session counters for a controller.
//
// Recorded each update cycle so dropped notifications and reconnect churn
// show up as time series rather than a single gauge.
//
// Parameters:
//   - controller: Controller address
//   - stats: Counter snapshot from Session.Stats
func (c *Client) WriteSessionStats(controller string, stats omni.Stats) {
	if !c.IsConnected() {
		return
	}

	// #nosec G115 -- counters stay far below the int64 range in practice
	fields := map[string]interface{}{
		"requests":              int64(stats.Requests),
		"notifications":         int64(stats.Notifications),
		"dropped_notifications": int64(stats.DroppedNotifications),
		"disconnects":           int64(stats.Disconnects),
		"reconnects":            int64(stats.Reconnects),
	}
	if !stats.ConnectedSince.IsZero() {
		fields["uptime_seconds"] = time.Since(stats.ConnectedSince).Seconds()
	}

	point := write.NewPoint(
		"session_stats",
		map[string]string{
			"controller": controller,
			"state":      stats.State.String(),
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "bridge-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., replaying controller
// event log entries).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
