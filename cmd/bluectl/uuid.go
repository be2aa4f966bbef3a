package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// bluezBaseSuffix completes a Bluetooth SIG short UUID to the 128-bit
// form BlueZ exposes in the catalog.
const bluezBaseSuffix = "-0000-1000-8000-00805f9b34fb"

// expandUUID normalizes user UUID input to the lowercase 128-bit string
// the catalog keys characteristics by. Accepts 16-bit ("2a37") and
// 32-bit ("00002a37") short forms, with or without 0x, and full UUIDs.
func expandUUID(in string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(in))
	s = strings.TrimPrefix(s, "0x")

	if isHex(s) {
		switch len(s) {
		case 4:
			return "0000" + s + bluezBaseSuffix, nil
		case 8:
			return s + bluezBaseSuffix, nil
		}
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID %q: %w", in, err)
	}
	return u.String(), nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
