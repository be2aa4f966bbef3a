package bluez

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// BusError wraps a failed remote call with the method and object path it
// targeted. Catalog fetches and method calls are cheap and idempotent, so
// callers surface these as failed operations and never auto-retry.
type BusError struct {
	Method string
	Path   dbus.ObjectPath
	Err    error
}

func (e *BusError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("bus call %s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("bus call %s on %s: %v", e.Method, e.Path, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// wrapCall converts a remote-call failure into a *BusError. Returns nil
// for a nil error so call sites can wrap unconditionally.
func wrapCall(method string, path dbus.ObjectPath, err error) error {
	if err == nil {
		return nil
	}
	return &BusError{Method: method, Path: path, Err: err}
}

// dbusErrorName extracts the D-Bus error name from err's chain, or "".
func dbusErrorName(err error) string {
	var derr dbus.Error
	if errors.As(err, &derr) {
		return derr.Name
	}
	return ""
}

// IsDiscoveryInactive reports whether err is BlueZ telling us discovery
// was not running. StopDiscovery on an idle adapter is treated as a no-op.
func IsDiscoveryInactive(err error) bool {
	switch dbusErrorName(err) {
	case "org.bluez.Error.NotReady":
		return true
	case "org.bluez.Error.Failed":
		return strings.Contains(err.Error(), "No discovery started")
	}
	return false
}

// IsNotConnected reports whether err is BlueZ rejecting an operation
// because the device is not connected.
func IsNotConnected(err error) bool {
	return dbusErrorName(err) == "org.bluez.Error.NotConnected"
}
