package bluez

import (
	"github.com/godbus/dbus/v5"
)

// PropertyChange is one PropertiesChanged signal: which object changed,
// which interface, and the changed property values.
type PropertyChange struct {
	Path      dbus.ObjectPath
	Interface string
	Changed   map[string]dbus.Variant
}

// Bus is the slice of the BlueZ D-Bus API the session layer consumes.
// Implementations block the calling goroutine for the duration of each
// remote round trip; calls issued sequentially complete in issuance order.
type Bus interface {
	// ManagedObjects performs one ObjectManager.GetManagedObjects round trip.
	ManagedObjects() (Catalog, error)

	StartDiscovery(adapter dbus.ObjectPath) error
	StopDiscovery(adapter dbus.ObjectPath) error

	ConnectDevice(device dbus.ObjectPath) error
	DisconnectDevice(device dbus.ObjectPath) error
	RemoveDevice(adapter, device dbus.ObjectPath) error

	// DeviceConnected re-reads the Connected property. A successful
	// Connect call does not by itself guarantee an established link;
	// this read is the authoritative signal.
	DeviceConnected(device dbus.ObjectPath) (bool, error)

	CharacteristicFlags(char dbus.ObjectPath) ([]string, error)
	ReadValue(char dbus.ObjectPath) ([]byte, error)
	WriteValue(char dbus.ObjectPath, data []byte) error
	StartNotify(char dbus.ObjectPath) error
	StopNotify(char dbus.ObjectPath) error

	// Watch returns the stream of PropertiesChanged signals. The channel
	// is closed when the bus connection shuts down.
	Watch() (<-chan PropertyChange, error)

	Close() error
}

// systemBus implements Bus on an established system-bus connection.
type systemBus struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	changes chan PropertyChange
}

// SystemBus dials the system bus where the BlueZ daemon lives.
func SystemBus() (Bus, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, wrapCall("SystemBus", "", err)
	}
	return &systemBus{conn: conn}, nil
}

func (b *systemBus) object(path dbus.ObjectPath) dbus.BusObject {
	return b.conn.Object(BusName, path)
}

func (b *systemBus) ManagedObjects() (Catalog, error) {
	var objects Catalog
	err := b.object(RootPath).
		Call(ObjectManagerInterface+".GetManagedObjects", 0).
		Store(&objects)
	if err != nil {
		return nil, wrapCall("GetManagedObjects", RootPath, err)
	}
	return objects, nil
}

func (b *systemBus) StartDiscovery(adapter dbus.ObjectPath) error {
	call := b.object(adapter).Call(AdapterInterface+".StartDiscovery", 0)
	return wrapCall("StartDiscovery", adapter, call.Err)
}

func (b *systemBus) StopDiscovery(adapter dbus.ObjectPath) error {
	call := b.object(adapter).Call(AdapterInterface+".StopDiscovery", 0)
	return wrapCall("StopDiscovery", adapter, call.Err)
}

func (b *systemBus) ConnectDevice(device dbus.ObjectPath) error {
	call := b.object(device).Call(DeviceInterface+".Connect", 0)
	return wrapCall("Connect", device, call.Err)
}

func (b *systemBus) DisconnectDevice(device dbus.ObjectPath) error {
	call := b.object(device).Call(DeviceInterface+".Disconnect", 0)
	return wrapCall("Disconnect", device, call.Err)
}

func (b *systemBus) RemoveDevice(adapter, device dbus.ObjectPath) error {
	call := b.object(adapter).Call(AdapterInterface+".RemoveDevice", 0, device)
	return wrapCall("RemoveDevice", adapter, call.Err)
}

func (b *systemBus) DeviceConnected(device dbus.ObjectPath) (bool, error) {
	v, err := b.object(device).GetProperty(DeviceInterface + "." + PropConnected)
	if err != nil {
		return false, wrapCall("Get Connected", device, err)
	}
	connected, _ := v.Value().(bool)
	return connected, nil
}

func (b *systemBus) CharacteristicFlags(char dbus.ObjectPath) ([]string, error) {
	v, err := b.object(char).GetProperty(GattCharacteristicInterface + "." + PropFlags)
	if err != nil {
		return nil, wrapCall("Get Flags", char, err)
	}
	flags, _ := v.Value().([]string)
	return flags, nil
}

func (b *systemBus) ReadValue(char dbus.ObjectPath) ([]byte, error) {
	options := map[string]dbus.Variant{}
	var value []byte
	err := b.object(char).
		Call(GattCharacteristicInterface+".ReadValue", 0, options).
		Store(&value)
	if err != nil {
		return nil, wrapCall("ReadValue", char, err)
	}
	return value, nil
}

func (b *systemBus) WriteValue(char dbus.ObjectPath, data []byte) error {
	// "request" selects the acknowledged write procedure.
	options := map[string]dbus.Variant{"type": dbus.MakeVariant("request")}
	call := b.object(char).Call(GattCharacteristicInterface+".WriteValue", 0, data, options)
	return wrapCall("WriteValue", char, call.Err)
}

func (b *systemBus) StartNotify(char dbus.ObjectPath) error {
	call := b.object(char).Call(GattCharacteristicInterface+".StartNotify", 0)
	return wrapCall("StartNotify", char, call.Err)
}

func (b *systemBus) StopNotify(char dbus.ObjectPath) error {
	call := b.object(char).Call(GattCharacteristicInterface+".StopNotify", 0)
	return wrapCall("StopNotify", char, call.Err)
}

func (b *systemBus) Watch() (<-chan PropertyChange, error) {
	if b.changes != nil {
		return b.changes, nil
	}

	err := b.conn.AddMatchSignal(
		dbus.WithMatchInterface(PropertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
	)
	if err != nil {
		return nil, wrapCall("AddMatch", "", err)
	}

	b.signals = make(chan *dbus.Signal, 64)
	b.changes = make(chan PropertyChange, 64)
	b.conn.Signal(b.signals)

	go func() {
		defer close(b.changes)
		for sig := range b.signals {
			if sig.Name != PropertiesInterface+".PropertiesChanged" || len(sig.Body) < 2 {
				continue
			}
			iface, ok := sig.Body[0].(string)
			if !ok {
				continue
			}
			changed, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				continue
			}
			b.changes <- PropertyChange{Path: sig.Path, Interface: iface, Changed: changed}
		}
	}()

	return b.changes, nil
}

func (b *systemBus) Close() error {
	if b.signals != nil {
		b.conn.RemoveSignal(b.signals)
		close(b.signals)
	}
	return b.conn.Close()
}
