package session

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/bluectl/internal/bluez"
)

// Connect issues a Connect call against the device and polls the
// Connected property until it reads true or the deadline passes. Only a
// verified true read commits the device as the session's connected
// device; on any failure session state is left untouched. A successful
// connection triggers GATT characteristic resolution.
func (s *Session) Connect(ctx context.Context, device dbus.ObjectPath) error {
	s.logger.WithField("device", device).Info("Connecting to device...")

	if err := s.bus.ConnectDevice(device); err != nil {
		return err
	}

	up, err := s.awaitConnected(ctx, device)
	if err != nil {
		return err
	}
	if !up {
		return &Error{Kind: ConnectFailed, Msg: string(device)}
	}

	s.connected = device
	s.logger.WithField("device", device).Info("Successfully connected")

	s.negotiateMTU(device)

	return s.discoverCharacteristics(ctx, device)
}

// awaitConnected polls the Connected property with bounded retry. The
// Connect call returning is not the authoritative signal; the property
// read is. Transient read errors during settling are retried until the
// deadline.
func (s *Session) awaitConnected(ctx context.Context, device dbus.ObjectPath) (bool, error) {
	deadline := time.Now().Add(s.opts.ConnectTimeout)
	for {
		connected, err := s.bus.DeviceConnected(device)
		if err == nil && connected {
			return true, nil
		}
		if err != nil {
			s.logger.WithError(err).Debug("Connected property not readable yet")
		}

		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(s.opts.PollInterval):
		}
	}
}

// negotiateMTU logs the MTU situation after connecting. BlueZ negotiates
// the ATT MTU automatically during connection establishment and exposes
// no exchange call, so this step is informational only and never fails
// the connect.
func (s *Session) negotiateMTU(device dbus.ObjectPath) {
	s.logger.WithFields(logrus.Fields{
		"device": device,
		"mtu":    preferredMTU,
	}).Debug("MTU exchange handled by daemon during connection")
}

// preferredMTU is the payload size we would request if BlueZ exposed
// an MTU exchange; kept for the log line's sake.
const preferredMTU = 250

// Disconnect tears down the current connection. With no device connected
// it reports ErrNotConnected. The connected-device marker, the
// characteristic map, and all subscriptions are cleared atomically even
// when the daemon reports the device already disconnected; only a hard
// remote error is surfaced after the cleanup.
func (s *Session) Disconnect() error {
	if s.connected == "" {
		return ErrNotConnected
	}

	device := s.connected
	err := s.bus.DisconnectDevice(device)

	s.teardownSubscriptions()
	s.connected = ""
	s.chars = orderedmap.New[string, dbus.ObjectPath]()

	if err != nil && !bluez.IsNotConnected(err) {
		return err
	}
	s.logger.WithField("device", device).Info("Disconnected from device")
	return nil
}

// Forget removes a device from the adapter and evicts it from the
// registry. If it is the connected device a full disconnect runs first;
// a disconnect failure is logged but does not stop the removal, since
// the disconnect is irreversible once issued.
func (s *Session) Forget(device dbus.ObjectPath) error {
	if device == s.connected {
		if err := s.Disconnect(); err != nil {
			s.logger.WithError(err).Warn("Disconnect before removal failed")
		}
	}

	if err := s.bus.RemoveDevice(s.adapter, device); err != nil {
		return err
	}

	s.devices.Delete(device)
	s.logger.WithField("device", device).Info("Device forgotten")
	return nil
}
