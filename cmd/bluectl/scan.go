package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for BLE devices",
	Long: `Scan for and display Bluetooth Low Energy peripherals in the vicinity.

Runs discovery on the adapter for the given duration, then lists every
device the daemon knows about: name, address, object path, and advertised
service UUIDs. The --filter flag keeps only devices advertising a service
UUID containing the given substring.`,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanFilter   string
	scanFormat   string
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 0, "Scan duration (default from config, 10s)")
	scanCmd.Flags().StringVarP(&scanFilter, "filter", "s", "", "Keep devices advertising a service UUID containing this substring")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "Output format (table, json)")
}

func runScan(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(sess *session.Session, cfg *config.Config, logger *logrus.Logger) error {
		duration := scanDuration
		if duration == 0 {
			duration = cfg.ScanDuration
		}
		format := scanFormat
		if format == "" {
			format = cfg.OutputFormat
		}
		if format != "table" && format != "json" {
			return fmt.Errorf("invalid format '%s': must be one of [table json]", format)
		}

		ctx, cancel := signalContext(context.Background())
		defer cancel()

		progress := NewCountdownProgressPrinter("Scanning for BLE devices", duration)
		progress.Start()
		err := sess.Scan(ctx, duration)
		progress.Stop()
		if err != nil {
			return err
		}

		return displayDevices(sess.Devices(scanFilter), format)
	})
}

func displayDevices(devices []session.DeviceRecord, format string) error {
	if len(devices) == 0 {
		fmt.Println("No devices discovered")
		return nil
	}
	if format == "json" {
		return displayDevicesJSON(devices)
	}
	return displayDevicesTable(devices)
}

func displayDevicesTable(devices []session.DeviceRecord) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tPATH\tSERVICES")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	unknown := color.New(color.Faint).Sprint(session.UnknownProperty)
	for _, dev := range devices {
		name := dev.Name
		if name == session.UnknownProperty {
			name = unknown
		}
		if len(name) > 24 {
			name = name[:21] + "..."
		}

		services := strings.Join(dev.ServiceUUIDs, ",")
		if len(services) > 40 {
			services = services[:37] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, dev.Address, dev.Path, services)
	}
	return w.Flush()
}

func displayDevicesJSON(devices []session.DeviceRecord) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(devices)
}
