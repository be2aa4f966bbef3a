package session

import (
	"context"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/bluectl/internal/bluez"
)

// UnknownProperty is the placeholder for Name and Address values a device
// has not advertised yet.
const UnknownProperty = "Unknown"

// StartScan starts discovery on the adapter.
func (s *Session) StartScan() error {
	if err := s.bus.StartDiscovery(s.adapter); err != nil {
		return err
	}
	s.logger.WithField("adapter", s.adapter).Info("Discovery started")
	return nil
}

// StopScan stops discovery. Stopping an adapter that is not discovering
// is a no-op; any other failure is surfaced.
func (s *Session) StopScan() error {
	err := s.bus.StopDiscovery(s.adapter)
	if err != nil && !bluez.IsDiscoveryInactive(err) {
		return err
	}
	s.logger.WithField("adapter", s.adapter).Info("Discovery stopped")
	return nil
}

// Scan clears the registry, runs discovery for the given duration, stops
// it, and refreshes the registry from the catalog. Cancelling the context
// ends the discovery window early; devices found so far are still
// collected.
func (s *Session) Scan(ctx context.Context, duration time.Duration) error {
	s.devices = orderedmap.New[dbus.ObjectPath, DeviceRecord]()

	if err := s.StartScan(); err != nil {
		return err
	}

	s.logger.WithField("duration", duration).Info("Scanning for devices...")

	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		s.logger.Debug("Scan window cancelled early")
	}

	if err := s.StopScan(); err != nil {
		return err
	}
	return s.Refresh()
}

// Refresh re-fetches the catalog and rebuilds the device registry from
// every object exposing the device interface. The rebuild is a full
// replacement: paths gone from the catalog are dropped, nothing is
// merged.
func (s *Session) Refresh() error {
	catalog, err := s.bus.ManagedObjects()
	if err != nil {
		return err
	}

	devices := orderedmap.New[dbus.ObjectPath, DeviceRecord]()
	for _, path := range catalog.Paths() {
		props := catalog.Properties(path, bluez.DeviceInterface)
		if props == nil {
			continue
		}
		devices.Set(path, DeviceRecord{
			Path:         path,
			Name:         bluez.PropString(props, bluez.PropName, UnknownProperty),
			Address:      bluez.PropString(props, bluez.PropAddress, UnknownProperty),
			ServiceUUIDs: bluez.PropStrings(props, bluez.PropUUIDs),
		})
	}
	s.devices = devices

	s.logger.WithField("device_count", devices.Len()).Info("Device registry refreshed")
	return nil
}

// Devices returns the registry in path order. A non-empty filter keeps
// only devices advertising at least one service UUID containing it as a
// case-sensitive substring.
func (s *Session) Devices(filter string) []DeviceRecord {
	records := make([]DeviceRecord, 0, s.devices.Len())
	for pair := s.devices.Oldest(); pair != nil; pair = pair.Next() {
		if filter != "" && !advertisesService(pair.Value, filter) {
			continue
		}
		records = append(records, pair.Value)
	}
	return records
}

func advertisesService(rec DeviceRecord, filter string) bool {
	for _, uuid := range rec.ServiceUUIDs {
		if strings.Contains(uuid, filter) {
			return true
		}
	}
	return false
}
