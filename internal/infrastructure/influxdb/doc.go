// Package influxdb stores Kiln's fleet telemetry as time series.
//
// The coordinator's telemetry loop samples every registered printer on an
// interval and writes three kinds of points through this package: hotend and
// bed temperatures, per-printer state and connectivity, and aggregate fleet
// gauges. Writes go through influxdb-client-go's non-blocking batched API,
// so a slow or unreachable server delays flushes rather than the sampling
// loop; batch failures surface through the SetOnError callback.
//
// InfluxDB is optional. With enabled: false in config, Connect returns
// ErrDisabled and the coordinator runs without historical telemetry.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    ...
//	}
//	defer client.Close()
//
//	tool := 215.3
//	client.WriteTemperatures("voron-01", &tool, nil, nil, nil)
package influxdb
