package session

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/bluectl/internal/bluez"
)

// discoverCharacteristics re-fetches the catalog until GATT
// characteristic objects under the device path appear, then rebuilds the
// session's characteristic map from scratch. Characteristic objects live
// in the device's path namespace, so substring containment of the device
// path is the descendant test. On duplicate UUIDs the later path wins;
// UUIDs are assumed unique within one device's GATT tree.
func (s *Session) discoverCharacteristics(ctx context.Context, device dbus.ObjectPath) error {
	s.logger.WithField("device", device).Info("Discovering services and characteristics...")

	deadline := time.Now().Add(s.opts.DiscoverTimeout)
	for {
		catalog, err := s.bus.ManagedObjects()
		if err != nil {
			return err
		}

		chars := collectCharacteristics(catalog, device)
		if len(chars) > 0 || time.Now().After(deadline) {
			s.installCharacteristics(chars)
			return nil
		}

		select {
		case <-ctx.Done():
			s.installCharacteristics(chars)
			return ctx.Err()
		case <-time.After(s.opts.PollInterval):
		}
	}
}

// collectCharacteristics maps UUID to object path for every
// characteristic nested under the device path.
func collectCharacteristics(catalog bluez.Catalog, device dbus.ObjectPath) map[string]dbus.ObjectPath {
	chars := make(map[string]dbus.ObjectPath)
	for _, path := range catalog.Paths() {
		if !strings.Contains(string(path), string(device)) {
			continue
		}
		props := catalog.Properties(path, bluez.GattCharacteristicInterface)
		if props == nil {
			continue
		}
		if uuid := bluez.PropString(props, bluez.PropUUID, ""); uuid != "" {
			chars[uuid] = path
		}
	}
	return chars
}

// installCharacteristics replaces the characteristic map entirely,
// inserting UUIDs in sorted order so iteration is UUID-ordered.
func (s *Session) installCharacteristics(chars map[string]dbus.ObjectPath) {
	uuids := make([]string, 0, len(chars))
	for uuid := range chars {
		uuids = append(uuids, uuid)
	}
	sort.Strings(uuids)

	m := orderedmap.New[string, dbus.ObjectPath]()
	for _, uuid := range uuids {
		m.Set(uuid, chars[uuid])
	}
	s.chars = m

	s.logger.WithField("characteristic_count", m.Len()).Info("GATT resolution complete")
}
