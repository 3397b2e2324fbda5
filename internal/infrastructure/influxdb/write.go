package influxdb

import (
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRSSI records one signal strength reading for a device.
//
// The write is non-blocking; points are batched and sent asynchronously.
// Readings on a disconnected client are dropped silently, telemetry is not
// worth stalling discovery for.
//
// Measurement: bluetooth_rssi, tagged by lowercased MAC and device name,
// with the dBm value in the rssi field.
func (c *Client) WriteRSSI(mac, name string, rssi int16) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bluetooth_rssi",
		map[string]string{
			"mac":  strings.ToLower(mac),
			"name": name,
		},
		map[string]interface{}{
			"rssi": int64(rssi),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
