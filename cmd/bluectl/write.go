package main

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write <device-path> <uuid> <hex-bytes>...",
	Short: "Write to a characteristic",
	Long: `Connects to the device and writes bytes to the characteristic using
the acknowledged write procedure.

Data is whitespace-separated two-digit hex bytes.

Examples:
  bluectl write /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF 2a39 01
  bluectl write /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF ff31 01 02 03`,
	Args: cobra.MinimumNArgs(3),
	RunE: runWrite,
}

func runWrite(cmd *cobra.Command, args []string) error {
	device := dbus.ObjectPath(args[0])
	uuid, err := expandUUID(args[1])
	if err != nil {
		return err
	}
	data, err := parseHexBytes(args[2:])
	if err != nil {
		return err
	}

	return withSession(cmd, func(sess *session.Session, cfg *config.Config, logger *logrus.Logger) error {
		ctx, cancel := signalContext(context.Background())
		defer cancel()

		return withConnectedDevice(ctx, sess, logger, device, func() error {
			if err := sess.Write(uuid, data); err != nil {
				return err
			}
			fmt.Printf("Wrote %d bytes to %s\n", len(data), uuid)
			return nil
		})
	})
}
