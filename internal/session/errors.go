package session

import "fmt"

// FailureKind identifies the class of a session-level failure.
type FailureKind string

const (
	NoAdapter     FailureKind = "no_adapter"
	NotConnected  FailureKind = "not_connected"
	ConnectFailed FailureKind = "connect_failed"
	CharNotFound  FailureKind = "characteristic_not_found"
)

// Error is a session failure with a typed kind. Lookup failures are
// detected locally before any remote call; remote failures are wrapped
// *bluez.BusError values and surface separately.
type Error struct {
	Kind FailureKind
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is allows errors.Is to compare session errors by kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors for session failure kinds.
var (
	// ErrNoAdapter means the catalog exposes no Bluetooth adapter.
	// Fatal at startup: without an adapter no operation is meaningful.
	ErrNoAdapter = &Error{Kind: NoAdapter}

	// ErrNotConnected means an operation required a connected device.
	ErrNotConnected = &Error{Kind: NotConnected}

	// ErrConnectFailed means the Connect call went through but the
	// Connected property never read true within the deadline.
	ErrConnectFailed = &Error{Kind: ConnectFailed}

	// ErrCharNotFound means the caller supplied a UUID absent from the
	// resolved characteristic map.
	ErrCharNotFound = &Error{Kind: CharNotFound}
)

func charNotFound(uuid string) error {
	return &Error{Kind: CharNotFound, Msg: uuid}
}
