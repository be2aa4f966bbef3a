package session

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/bluectl/internal/bluez"
)

// connectableCatalog is an adapter, one device, and one characteristic
// nested under the device.
func connectableCatalog() bluez.Catalog {
	catalog := baseCatalog()
	catalog[devicePath] = deviceObject("Sensor", "AA:BB:CC:DD:EE:FF", "0000180d-0000-1000-8000-00805f9b34fb")
	catalog[charPath] = charObject("2a37")
	return catalog
}

func TestConnectCommitsOnlyOnVerifiedConnection(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)

	require.NoError(t, sess.Connect(context.Background(), devicePath))

	assert.Equal(t, devicePath, sess.Connected())
	assert.Contains(t, bus.callLog(), "Connect "+string(devicePath))
	assert.Contains(t, bus.callLog(), "Get Connected "+string(devicePath))
}

func TestConnectFailsWhenConnectedPropertyStaysFalse(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	// Connect call succeeds but the property never reads true.
	sess := newTestSession(t, bus)

	err := sess.Connect(context.Background(), devicePath)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectFailed)

	assert.Equal(t, dbus.ObjectPath(""), sess.Connected())
	assert.Empty(t, sess.Characteristics())
}

func TestConnectFailsOnRemoteCallError(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	bus.failWith("Connect", errors.New("le-connection-abort-by-local"))
	sess := newTestSession(t, bus)

	require.Error(t, sess.Connect(context.Background(), devicePath))
	assert.Equal(t, dbus.ObjectPath(""), sess.Connected())
}

func TestConnectResolvesCharacteristicsUnderDevicePath(t *testing.T) {
	catalog := connectableCatalog()
	// A characteristic of some other device must not be picked up.
	catalog["/org/bluez/hci0/dev_ZZ/service0/char0"] = charObject("2a19")

	bus := newFakeBus(catalog)
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)

	require.NoError(t, sess.Connect(context.Background(), devicePath))

	chars := sess.Characteristics()
	require.Len(t, chars, 1)
	assert.Equal(t, "2a37", chars[0].UUID)
	assert.Equal(t, charPath, chars[0].Path)
}

func TestConnectReplacesCharacteristicsFromPriorConnection(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)
	require.NoError(t, sess.Connect(context.Background(), devicePath))
	require.NoError(t, sess.Disconnect())

	// Second device with a different characteristic set.
	otherDevice := dbus.ObjectPath("/org/bluez/hci0/dev_CC_DD")
	otherChar := dbus.ObjectPath("/org/bluez/hci0/dev_CC_DD/service0/char0")
	catalog := baseCatalog()
	catalog[otherDevice] = deviceObject("Other", "CC:DD:00:00:00:01")
	catalog[otherChar] = charObject("2a19")
	bus.setCatalog(catalog)
	bus.connected[otherDevice] = true

	require.NoError(t, sess.Connect(context.Background(), otherDevice))

	chars := sess.Characteristics()
	require.Len(t, chars, 1)
	assert.Equal(t, "2a19", chars[0].UUID)
}

func TestDuplicateUUIDLastPathWins(t *testing.T) {
	catalog := connectableCatalog()
	laterChar := dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB/service1/char0")
	catalog[laterChar] = charObject("2a37")

	bus := newFakeBus(catalog)
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)

	require.NoError(t, sess.Connect(context.Background(), devicePath))

	chars := sess.Characteristics()
	require.Len(t, chars, 1)
	assert.Equal(t, laterChar, chars[0].Path)
}

func TestDisconnectClearsSessionState(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)
	require.NoError(t, sess.Connect(context.Background(), devicePath))

	require.NoError(t, sess.Disconnect())

	assert.Equal(t, dbus.ObjectPath(""), sess.Connected())
	assert.Empty(t, sess.Characteristics())
	assert.Contains(t, bus.callLog(), "Disconnect "+string(devicePath))
}

func TestDisconnectClearsStateEvenWhenAlreadyDisconnected(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)
	require.NoError(t, sess.Connect(context.Background(), devicePath))

	bus.failWith("Disconnect", dbus.Error{
		Name: "org.bluez.Error.NotConnected",
		Body: []interface{}{"Not connected"},
	})

	require.NoError(t, sess.Disconnect())
	assert.Equal(t, dbus.ObjectPath(""), sess.Connected())
	assert.Empty(t, sess.Characteristics())
}

func TestDisconnectSurfacesHardErrorAfterClearing(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)
	require.NoError(t, sess.Connect(context.Background(), devicePath))

	hard := errors.New("bus connection lost")
	bus.failWith("Disconnect", hard)

	err := sess.Disconnect()
	require.Error(t, err)
	assert.ErrorIs(t, err, hard)
	// State is cleared regardless of the remote outcome.
	assert.Equal(t, dbus.ObjectPath(""), sess.Connected())
	assert.Empty(t, sess.Characteristics())
}

func TestDisconnectWithoutConnectionReportsNotConnected(t *testing.T) {
	sess := newTestSession(t, newFakeBus(baseCatalog()))
	assert.ErrorIs(t, sess.Disconnect(), ErrNotConnected)
}

func TestForgetDisconnectsConnectedDeviceFirst(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)
	require.NoError(t, sess.Connect(context.Background(), devicePath))
	require.NoError(t, sess.Refresh())

	require.NoError(t, sess.Forget(devicePath))

	log := bus.callLog()
	assert.Contains(t, log, "Disconnect "+string(devicePath))
	assert.Contains(t, log, "RemoveDevice "+string(devicePath))
	assert.Equal(t, dbus.ObjectPath(""), sess.Connected())
	assert.Empty(t, sess.Devices(""))
}

func TestForgetSurfacesRemovalErrorWithoutRollingBackDisconnect(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	bus.connected[devicePath] = true
	sess := newTestSession(t, bus)
	require.NoError(t, sess.Connect(context.Background(), devicePath))
	require.NoError(t, sess.Refresh())

	removeErr := errors.New("device busy")
	bus.failWith("RemoveDevice", removeErr)

	err := sess.Forget(devicePath)
	require.Error(t, err)
	assert.ErrorIs(t, err, removeErr)
	// The disconnect already happened and stays.
	assert.Equal(t, dbus.ObjectPath(""), sess.Connected())
	// Eviction only follows a successful removal.
	assert.Len(t, sess.Devices(""), 1)
}

func TestForgetUnconnectedDeviceSkipsDisconnect(t *testing.T) {
	bus := newFakeBus(connectableCatalog())
	sess := newTestSession(t, bus)
	require.NoError(t, sess.Refresh())

	require.NoError(t, sess.Forget(devicePath))

	for _, call := range bus.callLog() {
		assert.NotEqual(t, "Disconnect "+string(devicePath), call)
	}
}
