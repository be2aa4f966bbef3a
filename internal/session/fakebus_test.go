package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/srg/bluectl/internal/bluez"
)

// fakeBus implements bluez.Bus in memory: a catalog snapshot, injectable
// per-method errors, and a call log for asserting what reached the bus.
type fakeBus struct {
	mu sync.Mutex

	catalog   bluez.Catalog
	connected map[dbus.ObjectPath]bool
	flags     map[dbus.ObjectPath][]string
	values    map[dbus.ObjectPath][]byte
	written   map[dbus.ObjectPath][][]byte

	errs    map[string]error
	calls   []string
	changes chan bluez.PropertyChange
}

func newFakeBus(catalog bluez.Catalog) *fakeBus {
	return &fakeBus{
		catalog:   catalog,
		connected: make(map[dbus.ObjectPath]bool),
		flags:     make(map[dbus.ObjectPath][]string),
		values:    make(map[dbus.ObjectPath][]byte),
		written:   make(map[dbus.ObjectPath][][]byte),
		errs:      make(map[string]error),
		changes:   make(chan bluez.PropertyChange, 16),
	}
}

func (f *fakeBus) record(method string, path dbus.ObjectPath) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s %s", method, path))
	return f.errs[method]
}

func (f *fakeBus) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBus) failWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func (f *fakeBus) setCatalog(catalog bluez.Catalog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = catalog
}

func (f *fakeBus) ManagedObjects() (bluez.Catalog, error) {
	if err := f.record("GetManagedObjects", bluez.RootPath); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalog, nil
}

func (f *fakeBus) StartDiscovery(adapter dbus.ObjectPath) error {
	return f.record("StartDiscovery", adapter)
}

func (f *fakeBus) StopDiscovery(adapter dbus.ObjectPath) error {
	return f.record("StopDiscovery", adapter)
}

func (f *fakeBus) ConnectDevice(device dbus.ObjectPath) error {
	return f.record("Connect", device)
}

func (f *fakeBus) DisconnectDevice(device dbus.ObjectPath) error {
	return f.record("Disconnect", device)
}

func (f *fakeBus) RemoveDevice(adapter, device dbus.ObjectPath) error {
	return f.record("RemoveDevice", device)
}

func (f *fakeBus) DeviceConnected(device dbus.ObjectPath) (bool, error) {
	if err := f.record("Get Connected", device); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected[device], nil
}

func (f *fakeBus) CharacteristicFlags(char dbus.ObjectPath) ([]string, error) {
	if err := f.record("Get Flags", char); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[char], nil
}

func (f *fakeBus) ReadValue(char dbus.ObjectPath) ([]byte, error) {
	if err := f.record("ReadValue", char); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[char], nil
}

func (f *fakeBus) WriteValue(char dbus.ObjectPath, data []byte) error {
	if err := f.record("WriteValue", char); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written[char] = append(f.written[char], data)
	return nil
}

func (f *fakeBus) StartNotify(char dbus.ObjectPath) error {
	return f.record("StartNotify", char)
}

func (f *fakeBus) StopNotify(char dbus.ObjectPath) error {
	return f.record("StopNotify", char)
}

func (f *fakeBus) Watch() (<-chan bluez.PropertyChange, error) {
	if err := f.record("Watch", ""); err != nil {
		return nil, err
	}
	return f.changes, nil
}

func (f *fakeBus) Close() error {
	return nil
}

// Catalog builders.

const (
	adapterPath = dbus.ObjectPath("/org/bluez/hci0")
	devicePath  = dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB")
	charPath    = dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB/service0/char0")
)

func adapterObject() map[string]map[string]dbus.Variant {
	return map[string]map[string]dbus.Variant{
		bluez.AdapterInterface: {},
	}
}

func deviceObject(name, address string, uuids ...string) map[string]map[string]dbus.Variant {
	props := map[string]dbus.Variant{}
	if name != "" {
		props[bluez.PropName] = dbus.MakeVariant(name)
	}
	if address != "" {
		props[bluez.PropAddress] = dbus.MakeVariant(address)
	}
	if len(uuids) > 0 {
		props[bluez.PropUUIDs] = dbus.MakeVariant(uuids)
	}
	return map[string]map[string]dbus.Variant{
		bluez.DeviceInterface: props,
	}
}

func charObject(uuid string) map[string]map[string]dbus.Variant {
	return map[string]map[string]dbus.Variant{
		bluez.GattCharacteristicInterface: {
			bluez.PropUUID: dbus.MakeVariant(uuid),
		},
	}
}

// baseCatalog is one adapter plus whatever the test adds.
func baseCatalog() bluez.Catalog {
	return bluez.Catalog{adapterPath: adapterObject()}
}

// fastOptions keeps readiness polling snappy in tests.
func fastOptions() *Options {
	return &Options{
		ConnectTimeout:  50 * time.Millisecond,
		DiscoverTimeout: 50 * time.Millisecond,
		PollInterval:    time.Millisecond,
	}
}
