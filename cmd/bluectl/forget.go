package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// forgetCmd represents the forget command
var forgetCmd = &cobra.Command{
	Use:   "forget <device-path>",
	Short: "Remove a device from the adapter",
	Long: `Removes the device from the adapter, discarding its pairing and GATT
cache. A connected device is disconnected first.

Example:
  bluectl forget /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF`,
	Args: cobra.ExactArgs(1),
	RunE: runForget,
}

func runForget(cmd *cobra.Command, args []string) error {
	device := dbus.ObjectPath(args[0])

	return withSession(cmd, func(sess *session.Session, cfg *config.Config, logger *logrus.Logger) error {
		if err := sess.Forget(device); err != nil {
			return err
		}
		fmt.Printf("Device %s forgotten\n", device)
		return nil
	})
}
