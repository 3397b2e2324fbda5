// Package influxdb records bluetooth signal telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library for blueland's one
// time-series concern: RSSI readings observed during discovery. Charted
// over time, signal strength shows which devices are around and how far
// away, which pairs nicely with the live observation feed.
//
// The integration is optional and off by default. Writes are non-blocking
// and batched according to config (batch_size, flush_interval); batch
// errors arrive on a callback.
package influxdb
