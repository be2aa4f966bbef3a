package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// subscribeCmd represents the subscribe command
var subscribeCmd = &cobra.Command{
	Use:   "subscribe <device-path> <uuid>",
	Short: "Subscribe to characteristic notifications",
	Long: `Connects to the device, enables notifications on the characteristic,
and prints every value change until interrupted with Ctrl+C.

Examples:
  bluectl subscribe /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF 2a37
  bluectl subscribe /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF 2a37 --hex`,
	Args: cobra.ExactArgs(2),
	RunE: runSubscribe,
}

var subscribeHex bool

func init() {
	subscribeCmd.Flags().BoolVar(&subscribeHex, "hex", false, "Output as plain hex string; annotated hex dump by default")
}

func runSubscribe(cmd *cobra.Command, args []string) error {
	device := dbus.ObjectPath(args[0])
	uuid, err := expandUUID(args[1])
	if err != nil {
		return err
	}

	return withSession(cmd, func(sess *session.Session, cfg *config.Config, logger *logrus.Logger) error {
		ctx, cancel := signalContext(context.Background())
		defer cancel()

		return withConnectedDevice(ctx, sess, logger, device, func() error {
			sub, err := sess.Subscribe(uuid)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Subscribed to %s. Press Ctrl+C to stop...\n", uuid)

			for {
				select {
				case <-ctx.Done():
					return sess.Unsubscribe(uuid)
				case n, ok := <-sub.C():
					if !ok {
						return nil
					}
					printNotification(n, subscribeHex)
				}
			}
		})
	})
}

func printNotification(n session.Notification, plainHex bool) {
	if plainHex {
		fmt.Printf("[%s] %s\n", n.UUID, hex.EncodeToString(n.Value))
		return
	}
	fmt.Printf("[%s] %s\n", n.UUID, hexDump(n.Value))
}
