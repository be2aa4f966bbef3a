package session

import (
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// CharacteristicInfo describes one resolved characteristic. Flags is nil
// when the daemon could not report them.
type CharacteristicInfo struct {
	UUID  string          `json:"uuid"`
	Path  dbus.ObjectPath `json:"path"`
	Flags []string        `json:"flags,omitempty"`
}

// Characteristics lists the resolved characteristics in UUID order.
// Capability flags are fetched best-effort per entry: a failed fetch
// omits that entry's flags and never aborts the listing.
func (s *Session) Characteristics() []CharacteristicInfo {
	infos := make([]CharacteristicInfo, 0, s.chars.Len())
	for pair := s.chars.Oldest(); pair != nil; pair = pair.Next() {
		info := CharacteristicInfo{UUID: pair.Key, Path: pair.Value}

		flags, err := s.bus.CharacteristicFlags(pair.Value)
		if err != nil {
			s.logger.WithError(err).WithField("uuid", pair.Key).Debug("Flags not readable")
		} else {
			info.Flags = flags
		}
		infos = append(infos, info)
	}
	return infos
}

// lookup resolves a UUID to its characteristic path without touching the
// bus. Unknown UUIDs fail here, before any remote call is attempted.
func (s *Session) lookup(uuid string) (dbus.ObjectPath, error) {
	path, ok := s.chars.Get(uuid)
	if !ok {
		return "", charNotFound(uuid)
	}
	return path, nil
}

// Read reads the characteristic's current value.
func (s *Session) Read(uuid string) ([]byte, error) {
	path, err := s.lookup(uuid)
	if err != nil {
		return nil, err
	}
	value, err := s.bus.ReadValue(path)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"uuid":  uuid,
		"bytes": len(value),
	}).Debug("Read characteristic")
	return value, nil
}

// Write writes data to the characteristic using the acknowledged write
// procedure.
func (s *Session) Write(uuid string, data []byte) error {
	path, err := s.lookup(uuid)
	if err != nil {
		return err
	}
	if err := s.bus.WriteValue(path, data); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"uuid":  uuid,
		"bytes": len(data),
	}).Debug("Wrote characteristic")
	return nil
}
