package session

import (
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/srg/bluectl/internal/bluez"
	"github.com/srg/bluectl/internal/ringchan"
)

// notificationBuffer bounds how many undelivered notifications a
// subscription holds before the oldest is dropped.
const notificationBuffer = 64

// Notification is one value-change event correlated back to the
// characteristic it came from.
type Notification struct {
	UUID  string
	Value []byte
}

// Subscription is a live notify registration for one characteristic.
// Values arrive on C; the channel is closed when the subscription ends,
// whether by Unsubscribe, by disconnect, or by session close.
type Subscription struct {
	uuid string
	path dbus.ObjectPath

	mu     sync.Mutex
	ring   *ringchan.Ring[Notification]
	closed bool
}

// UUID returns the characteristic UUID this subscription delivers for.
func (sub *Subscription) UUID() string {
	return sub.uuid
}

// C returns the notification channel.
func (sub *Subscription) C() <-chan Notification {
	return sub.ring.C()
}

// deliver hands a notification to the consumer without blocking the
// dispatch goroutine; with a full buffer the oldest value is dropped.
// Delivery after close is discarded.
func (sub *Subscription) deliver(n Notification) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.ring.Send(n)
}

func (sub *Subscription) close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	sub.ring.Close()
}

// Subscribe registers for value-change notifications on the
// characteristic and issues the remote StartNotify call. Subscribing to
// an already-subscribed UUID returns the existing subscription. The
// unknown-UUID check runs before any remote call.
func (s *Session) Subscribe(uuid string) (*Subscription, error) {
	path, err := s.lookup(uuid)
	if err != nil {
		return nil, err
	}

	if existing, ok := s.byUUID[uuid]; ok {
		return existing, nil
	}

	if err := s.startDispatch(); err != nil {
		return nil, err
	}

	sub := &Subscription{uuid: uuid, path: path, ring: ringchan.New[Notification](notificationBuffer)}
	s.byPath.Set(string(path), sub)
	s.byUUID[uuid] = sub

	if err := s.bus.StartNotify(path); err != nil {
		s.byPath.Del(string(path))
		delete(s.byUUID, uuid)
		sub.close()
		return nil, err
	}

	s.logger.WithField("uuid", uuid).Info("Notifications enabled")
	return sub, nil
}

// Unsubscribe issues the remote StopNotify call and tears down local
// delivery for the UUID, closing the subscription's channel. StopNotify
// is still issued when no local subscription exists, mirroring the
// remote-side semantics of a bare stop.
func (s *Session) Unsubscribe(uuid string) error {
	path, err := s.lookup(uuid)
	if err != nil {
		return err
	}

	if sub, ok := s.byUUID[uuid]; ok {
		s.byPath.Del(string(path))
		delete(s.byUUID, uuid)
		sub.close()
	}

	if err := s.bus.StopNotify(path); err != nil {
		return err
	}
	s.logger.WithField("uuid", uuid).Info("Notifications disabled")
	return nil
}

// teardownSubscriptions ends every active subscription locally. Used on
// disconnect and session close, where the daemon-side notify state dies
// with the connection anyway.
func (s *Session) teardownSubscriptions() {
	for uuid, sub := range s.byUUID {
		s.byPath.Del(string(sub.path))
		delete(s.byUUID, uuid)
		sub.close()
	}
}

// startDispatch starts the signal dispatch goroutine on first use.
func (s *Session) startDispatch() error {
	s.dispatchOnce.Do(func() {
		changes, err := s.bus.Watch()
		if err != nil {
			s.dispatchErr = err
			return
		}
		go s.dispatch(changes)
	})
	return s.dispatchErr
}

// dispatch consumes the PropertiesChanged stream and routes Value
// updates to their subscriptions. It only reads the correlation map and
// never mutates session state.
func (s *Session) dispatch(changes <-chan bluez.PropertyChange) {
	for change := range changes {
		if change.Interface != bluez.GattCharacteristicInterface {
			continue
		}
		if _, ok := change.Changed[bluez.PropValue]; !ok {
			continue
		}
		sub, ok := s.byPath.Get(string(change.Path))
		if !ok {
			continue
		}
		value := bluez.PropBytes(change.Changed, bluez.PropValue)

		// The daemon may reuse the signal body's backing array.
		buf := make([]byte, len(value))
		copy(buf, value)
		sub.deliver(Notification{UUID: sub.uuid, Value: buf})
	}
}
