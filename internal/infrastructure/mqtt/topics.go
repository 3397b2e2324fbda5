package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the base for all blueland topics.
const TopicPrefix = "blueland"

// Topics provides builders for blueland MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// SystemStatus returns the topic for daemon online/offline status.
//
// Example: blueland/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// DeviceObserved returns the per-device observation topic.
//
// Example: blueland/device/observed/aa-bb-cc-dd-ee-ff
func (Topics) DeviceObserved(mac string) string {
	return fmt.Sprintf("%s/device/observed/%s", TopicPrefix, topicSegment(mac))
}

// topicSegment makes a MAC address safe and stable as a topic level.
func topicSegment(mac string) string {
	return strings.ReplaceAll(strings.ToLower(mac), ":", "-")
}
