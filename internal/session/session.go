// Package session implements the BLE session state machine on top of the
// BlueZ bus layer: adapter resolution, the scanned-device registry, the
// connection lifecycle, GATT characteristic resolution, and the
// notification engine.
//
// A Session is owned by a single caller goroutine; all mutating
// operations must be issued from it. The only concurrent actor is the
// notification dispatch goroutine, which reads the path-to-subscription
// correlation map and never touches session state.
package session

import (
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/bluectl/internal/bluez"
)

// Options tunes the session's readiness polling.
type Options struct {
	// ConnectTimeout bounds the poll for the Connected property after a
	// Connect call. The call returning does not mean the link is up.
	ConnectTimeout time.Duration

	// DiscoverTimeout bounds the poll for GATT characteristic objects to
	// appear in the catalog after a connection is established.
	DiscoverTimeout time.Duration

	// PollInterval is the delay between readiness re-checks.
	PollInterval time.Duration
}

// DefaultOptions returns the polling defaults.
func DefaultOptions() *Options {
	return &Options{
		ConnectTimeout:  10 * time.Second,
		DiscoverTimeout: 5 * time.Second,
		PollInterval:    100 * time.Millisecond,
	}
}

// DeviceRecord is one discovered peripheral: the last-fetched property
// snapshot keyed by its object path. Records are replaced wholesale on
// every registry refresh.
type DeviceRecord struct {
	Path         dbus.ObjectPath `json:"path"`
	Name         string          `json:"name"`
	Address      string          `json:"address"`
	ServiceUUIDs []string        `json:"service_uuids,omitempty"`
}

// Session holds the state of one BLE session: the resolved adapter, the
// device registry, at most one connected device, and the characteristic
// map of that device.
type Session struct {
	bus    bluez.Bus
	logger *logrus.Logger
	opts   Options

	adapter dbus.ObjectPath

	devices   *orderedmap.OrderedMap[dbus.ObjectPath, DeviceRecord]
	connected dbus.ObjectPath
	chars     *orderedmap.OrderedMap[string, dbus.ObjectPath]

	// byPath correlates characteristic object paths to live
	// subscriptions. The dispatch goroutine reads it lock-free while the
	// session goroutine adds and removes entries.
	byPath *hashmap.Map[string, *Subscription]
	byUUID map[string]*Subscription

	dispatchOnce sync.Once
	dispatchErr  error
}

// New resolves the adapter and returns a ready session. The catalog is
// scanned once in path order; the first object exposing the adapter
// interface wins (multi-adapter selection is out of scope). Returns
// ErrNoAdapter when no adapter object exists.
func New(bus bluez.Bus, logger *logrus.Logger, opts *Options) (*Session, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	s := &Session{
		bus:     bus,
		logger:  logger,
		opts:    *opts,
		devices: orderedmap.New[dbus.ObjectPath, DeviceRecord](),
		chars:   orderedmap.New[string, dbus.ObjectPath](),
		byPath:  hashmap.New[string, *Subscription](),
		byUUID:  make(map[string]*Subscription),
	}

	if err := s.resolveAdapter(); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveAdapter locates the adapter object in the catalog.
func (s *Session) resolveAdapter() error {
	catalog, err := s.bus.ManagedObjects()
	if err != nil {
		return err
	}

	for _, path := range catalog.Paths() {
		if catalog.HasInterface(path, bluez.AdapterInterface) {
			s.adapter = path
			s.logger.WithField("adapter", path).Info("Found adapter")
			return nil
		}
	}
	return ErrNoAdapter
}

// Adapter returns the resolved adapter path.
func (s *Session) Adapter() dbus.ObjectPath {
	return s.adapter
}

// Connected returns the currently connected device path, "" when
// disconnected.
func (s *Session) Connected() dbus.ObjectPath {
	return s.connected
}

// Close tears down all active subscriptions. It does not disconnect the
// device or close the bus; both belong to the caller.
func (s *Session) Close() {
	s.teardownSubscriptions()
}
