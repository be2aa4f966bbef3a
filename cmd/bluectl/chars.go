package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// charsCmd represents the chars command
var charsCmd = &cobra.Command{
	Use:   "chars <device-path>",
	Short: "List GATT characteristics of a device",
	Long: `Connects to the device, resolves its GATT tree, and lists every
characteristic with its UUID, capability flags, and object path.

Example:
  bluectl chars /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF`,
	Args: cobra.ExactArgs(1),
	RunE: runChars,
}

var charsFormat string

func init() {
	charsCmd.Flags().StringVarP(&charsFormat, "format", "f", "", "Output format (table, json)")
}

func runChars(cmd *cobra.Command, args []string) error {
	device := dbus.ObjectPath(args[0])

	return withSession(cmd, func(sess *session.Session, cfg *config.Config, logger *logrus.Logger) error {
		format := charsFormat
		if format == "" {
			format = cfg.OutputFormat
		}

		ctx, cancel := signalContext(context.Background())
		defer cancel()

		return withConnectedDevice(ctx, sess, logger, device, func() error {
			return displayCharacteristics(sess.Characteristics(), format)
		})
	})
}

func displayCharacteristics(chars []session.CharacteristicInfo, format string) error {
	if len(chars) == 0 {
		fmt.Println("No characteristics resolved")
		return nil
	}
	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(chars)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UUID\tFLAGS\tPATH")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, c := range chars {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.UUID, strings.Join(c.Flags, ","), c.Path)
	}
	return w.Flush()
}
