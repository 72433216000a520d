package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTemperatures writes a printer temperature sample to InfluxDB.
//
// This is the primary method for recording thermal telemetry. The write
// is non-blocking; data is batched and sent asynchronously. Nil pointers
// mark readings the printer did not report and are omitted from the point.
//
// Parameters:
//   - printerID: Unique identifier for the printer (e.g., "voron-01")
//   - toolActual: Hotend temperature in Celsius (nil if unreported)
//   - toolTarget: Hotend target temperature (nil if unreported)
//   - bedActual: Bed temperature in Celsius (nil if unreported)
//   - bedTarget: Bed target temperature (nil if unreported)
func (c *Client) WriteTemperatures(printerID string, toolActual, toolTarget, bedActual, bedTarget *float64) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{}
	if toolActual != nil {
		fields["tool_actual"] = *toolActual
	}
	if toolTarget != nil {
		fields["tool_target"] = *toolTarget
	}
	if bedActual != nil {
		fields["bed_actual"] = *bedActual
	}
	if bedTarget != nil {
		fields["bed_target"] = *bedTarget
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"printer_temperatures",
		map[string]string{
			"printer_id": printerID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePrinterState writes a printer state sample.
//
// Used for tracking connectivity and lifecycle state over time. State is
// recorded as a tag so dashboards can group by it cheaply.
//
// Parameters:
//   - printerID: Printer identifier
//   - state: Lifecycle state (idle, printing, error, offline, ...)
//   - connected: Whether the printer was reachable when sampled
func (c *Client) WritePrinterState(printerID string, state string, connected bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"printer_state",
		map[string]string{
			"printer_id": printerID,
			"state":      state,
		},
		map[string]interface{}{
			"connected": connected,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteFleetGauge writes an aggregate fleet measurement.
//
// Used for fleet-wide counters like registered printers, idle printers,
// and unreachable printers.
//
// Parameters:
//   - metricName: Gauge name (e.g., "printers_total", "printers_idle")
//   - value: The gauge value
func (c *Client) WriteFleetGauge(metricName string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"fleet",
		map[string]string{
			"metric": metricName,
		},
		map[string]interface{}{
			"value": value,
		},
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
//	    map[string]string{"host": "kiln-01"},
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
// Use this when the timestamp is not "now" (e.g., delayed data).
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
