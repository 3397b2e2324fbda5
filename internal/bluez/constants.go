package bluez

// Well-known names, interfaces and paths on the BlueZ side of the system bus.
const (
	BusName = "org.bluez"

	RootPath    = "/org/bluez"
	AdapterRoot = "/org/bluez/"

	AdapterInterface      = "org.bluez.Adapter1"
	DeviceInterface       = "org.bluez.Device1"
	AgentInterface        = "org.bluez.Agent1"
	AgentManagerInterface = "org.bluez.AgentManager1"

	objectManagerInterface = "org.freedesktop.DBus.ObjectManager"
	propertiesInterface    = "org.freedesktop.DBus.Properties"

	interfacesAddedSignal = objectManagerInterface + ".InterfacesAdded"
)

// Device property names exposed through org.bluez.Device1. SnapshotProperties
// is the fixed whitelist queried for device state snapshots; an unsupported
// property is omitted from the result, never an error.
var SnapshotProperties = []string{
	"Name", "Address", "Paired", "Connected", "Trusted", "RSSI", "UUIDs",
}
