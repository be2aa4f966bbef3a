package main

import (
	"errors"
	"fmt"

	"github.com/srg/bluectl/internal/bluez"
	"github.com/srg/bluectl/internal/session"
)

// FormatUserError renders an error for humans, translating the typed
// session and bus failures into actionable messages.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, session.ErrNoAdapter):
		return "no Bluetooth adapter found (is the bluetooth service running?)"
	case errors.Is(err, session.ErrNotConnected):
		return "no device connected"
	case errors.Is(err, session.ErrConnectFailed):
		return fmt.Sprintf("failed to connect: %v", err)
	case errors.Is(err, session.ErrCharNotFound):
		return fmt.Sprintf("%v (connect to the device and run 'chars' to see resolved UUIDs)", err)
	}

	var busErr *bluez.BusError
	if errors.As(err, &busErr) {
		return fmt.Sprintf("BlueZ call failed: %v", busErr)
	}
	return err.Error()
}
