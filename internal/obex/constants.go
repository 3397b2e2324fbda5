package obex

// obexd runs per session and lives on the session bus, unlike bluetoothd.
const (
	BusName  = "org.bluez.obex"
	RootPath = "/org/bluez/obex"

	AgentInterface = "org.bluez.obex.Agent1"

	clientInterface       = "org.bluez.obex.Client1"
	agentManagerInterface = "org.bluez.obex.AgentManager1"
	objectPushInterface   = "org.bluez.obex.ObjectPush1"
	transferInterface     = "org.bluez.obex.Transfer1"
	propertiesInterface   = "org.freedesktop.DBus.Properties"
)

// oppTarget selects the Object Push Profile when creating a session.
const oppTarget = "opp"
