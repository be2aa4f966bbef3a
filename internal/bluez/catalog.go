package bluez

import (
	"sort"

	"github.com/godbus/dbus/v5"
)

// Catalog is a snapshot of the daemon's managed objects: object path to
// interface name to property name to value, exactly as returned by
// ObjectManager.GetManagedObjects. It is a cached projection of bus state
// and is never authoritative beyond the next fetch.
type Catalog map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Paths returns every object path in the catalog in sorted order.
// D-Bus maps carry no ordering, so sorted paths are the catalog order
// all linear scans use.
func (c Catalog) Paths() []dbus.ObjectPath {
	paths := make([]dbus.ObjectPath, 0, len(c))
	for path := range c {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// HasInterface reports whether the object at path exposes the interface.
func (c Catalog) HasInterface(path dbus.ObjectPath, iface string) bool {
	_, ok := c[path][iface]
	return ok
}

// Properties returns the property map of iface at path, or nil if the
// object or interface is absent.
func (c Catalog) Properties(path dbus.ObjectPath, iface string) map[string]dbus.Variant {
	return c[path][iface]
}

// PropString extracts a string property, returning fallback when the
// property is missing or not a string. Devices that have not finished
// advertisement parsing commonly lack Name and Address.
func PropString(props map[string]dbus.Variant, name, fallback string) string {
	if v, ok := props[name]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return fallback
}

// PropBool extracts a boolean property, false when missing or mistyped.
func PropBool(props map[string]dbus.Variant, name string) bool {
	if v, ok := props[name]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// PropStrings extracts a string-array property, nil when missing or mistyped.
func PropStrings(props map[string]dbus.Variant, name string) []string {
	if v, ok := props[name]; ok {
		if ss, ok := v.Value().([]string); ok {
			return ss
		}
	}
	return nil
}

// PropBytes extracts a byte-array property, nil when missing or mistyped.
func PropBytes(props map[string]dbus.Variant, name string) []byte {
	if v, ok := props[name]; ok {
		if b, ok := v.Value().([]byte); ok {
			return b
		}
	}
	return nil
}
