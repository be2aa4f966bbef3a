package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices [filter]",
	Short: "List known BLE devices",
	Long: `Lists every device the BlueZ daemon currently knows about, without
running a new discovery. The optional filter keeps only devices
advertising a service UUID containing it as a substring.

The daemon caches devices between scans, so this reflects earlier
discovery runs too.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDevices,
}

var devicesFormat string

func init() {
	devicesCmd.Flags().StringVarP(&devicesFormat, "format", "f", "", "Output format (table, json)")
}

func runDevices(cmd *cobra.Command, args []string) error {
	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}

	return withSession(cmd, func(sess *session.Session, cfg *config.Config, logger *logrus.Logger) error {
		format := devicesFormat
		if format == "" {
			format = cfg.OutputFormat
		}
		if format != "table" && format != "json" {
			return fmt.Errorf("invalid format '%s': must be one of [table json]", format)
		}

		if err := sess.Refresh(); err != nil {
			return err
		}
		return displayDevices(sess.Devices(filter), format)
	})
}
