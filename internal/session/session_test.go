package session

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/bluectl/internal/bluez"
)

func TestNewResolvesFirstAdapterInCatalogOrder(t *testing.T) {
	catalog := bluez.Catalog{
		"/org/bluez/hci1":        adapterObject(),
		"/org/bluez/hci0":        adapterObject(),
		"/org/bluez/hci0/dev_XX": deviceObject("X", "00:11:22:33:44:55"),
	}

	sess, err := New(newFakeBus(catalog), nil, fastOptions())
	require.NoError(t, err)

	// Sorted path order is catalog order; hci0 comes first.
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0"), sess.Adapter())
}

func TestNewFailsWithoutAdapter(t *testing.T) {
	catalog := bluez.Catalog{
		"/org/bluez/hci0/dev_XX": deviceObject("X", "00:11:22:33:44:55"),
	}

	_, err := New(newFakeBus(catalog), nil, fastOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAdapter)
}

func TestNewPropagatesCatalogFetchFailure(t *testing.T) {
	bus := newFakeBus(baseCatalog())
	bus.failWith("GetManagedObjects", errors.New("bus gone"))

	_, err := New(bus, nil, fastOptions())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoAdapter)
}

// newTestSession builds a session over the fake bus, failing the test on
// any setup error.
func newTestSession(t *testing.T, bus *fakeBus) *Session {
	t.Helper()
	sess, err := New(bus, nil, fastOptions())
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess
}
