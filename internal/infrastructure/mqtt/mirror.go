package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blueland/blueland/internal/device"
)

// Publisher is the slice of the client the mirror needs.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// Mirror republishes device observations as retained MQTT messages, one
// topic per device.
type Mirror struct {
	pub Publisher
}

// observation is the wire shape of a mirrored sighting.
type observation struct {
	Name       string `json:"name"`
	Mac        string `json:"mac"`
	Path       string `json:"path"`
	RSSI       *int16 `json:"rssi,omitempty"`
	ObservedAt string `json:"observed_at"`
}

// NewMirror creates a mirror over the given publisher.
func NewMirror(pub Publisher) *Mirror {
	return &Mirror{pub: pub}
}

// DeviceObserved publishes one sighting. Intended to hang off the registry
// as its observer.
func (m *Mirror) DeviceObserved(d device.Device) error {
	payload, err := json.Marshal(observation{
		Name:       d.Name,
		Mac:        d.Address,
		Path:       string(d.Path),
		RSSI:       d.RSSI,
		ObservedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshalling observation: %w", err)
	}
	return m.pub.PublishRetained(Topics{}.DeviceObserved(d.Address), payload)
}
