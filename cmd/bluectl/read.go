package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read <device-path> <uuid>",
	Short: "Read a characteristic value",
	Long: `Connects to the device and reads the characteristic's current value.

The UUID may be given in 16-bit ("2a37"), 32-bit, or full 128-bit form.

Examples:
  # Read Heart Rate Measurement, output as hex dump
  bluectl read /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF 2a37

  # Plain hex string output
  bluectl read /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF 2a37 --hex`,
	Args: cobra.ExactArgs(2),
	RunE: runRead,
}

var readHex bool

func init() {
	readCmd.Flags().BoolVar(&readHex, "hex", false, "Output as plain hex string (e.g., 'ff01'); annotated hex dump by default")
}

func runRead(cmd *cobra.Command, args []string) error {
	device := dbus.ObjectPath(args[0])
	uuid, err := expandUUID(args[1])
	if err != nil {
		return err
	}

	return withSession(cmd, func(sess *session.Session, cfg *config.Config, logger *logrus.Logger) error {
		ctx, cancel := signalContext(context.Background())
		defer cancel()

		return withConnectedDevice(ctx, sess, logger, device, func() error {
			data, err := sess.Read(uuid)
			if err != nil {
				return err
			}
			if readHex {
				fmt.Println(hex.EncodeToString(data))
			} else {
				fmt.Println(hexDump(data))
			}
			return nil
		})
	})
}
