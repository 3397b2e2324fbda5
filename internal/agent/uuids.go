package agent

import (
	"fmt"
	"strings"
)

// serviceNames maps the bluetooth profile UUIDs we care to name in prompts.
// Unlisted services fall through to the raw UUID.
var serviceNames = map[string]string{
	"0000111e-0000-1000-8000-00805f9b34fb": "Hands-Free Profile (Calls)",
	"0000110d-0000-1000-8000-00805f9b34fb": "A2DP Sink (Media Audio)",
	"0000110e-0000-1000-8000-00805f9b34fb": "AVRCP Controller (Media Controls)",
}

// ServiceName returns a human readable label for a bluetooth service UUID.
func ServiceName(uuid string) string {
	if name, ok := serviceNames[strings.ToLower(uuid)]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Service (%s)", uuid)
}
