// Package bluez talks to the BlueZ daemon over the system D-Bus.
//
// It exposes the daemon's managed-object catalog (adapters, devices, GATT
// services and characteristics) plus the handful of method calls and the
// PropertiesChanged signal stream the session layer needs. Anything below
// the D-Bus API (radio, L2CAP, ATT) is the daemon's business.
package bluez

// Well-known BlueZ bus names, interfaces, and property names.
const (
	BusName  = "org.bluez"
	RootPath = "/"

	AdapterInterface            = "org.bluez.Adapter1"
	DeviceInterface             = "org.bluez.Device1"
	GattServiceInterface        = "org.bluez.GattService1"
	GattCharacteristicInterface = "org.bluez.GattCharacteristic1"

	PropertiesInterface    = "org.freedesktop.DBus.Properties"
	ObjectManagerInterface = "org.freedesktop.DBus.ObjectManager"

	PropName      = "Name"
	PropAddress   = "Address"
	PropUUIDs     = "UUIDs"
	PropConnected = "Connected"
	PropUUID      = "UUID"
	PropFlags     = "Flags"
	PropValue     = "Value"
)
