// Package mqtt mirrors blueland's device observations onto an MQTT broker.
//
// The mirror is optional and off by default. When enabled, every device
// observation is republished as a retained message so dashboards and home
// automation systems can follow nearby bluetooth devices without speaking
// D-Bus. The daemon's own liveness is visible on the system status topic
// through a Last Will and Testament message.
//
// Topics:
//
//	blueland/system/status               daemon online/offline (retained)
//	blueland/device/observed/{mac}       latest sighting per device (retained)
//
// MAC addresses are lowercased with colons replaced by dashes in topic
// segments, e.g. aa-bb-cc-dd-ee-ff.
package mqtt
