package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive BLE session shell",
	Long: `Starts an interactive shell holding one BLE session: scan, connect,
inspect, read, write, and watch notifications against the same connection
without reconnecting between operations.

Type 'help' inside the shell for the command list.`,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(sess *session.Session, cfg *config.Config, logger *logrus.Logger) error {
		sh := &shell{sess: sess, cfg: cfg, logger: logger}
		return sh.run()
	})
}

// shell drives the interactive command loop. All session operations run
// on the loop goroutine; only notification printers run concurrently.
type shell struct {
	sess   *session.Session
	cfg    *config.Config
	logger *logrus.Logger
}

func (sh *shell) run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          color.CyanString("bluectl> "),
		HistoryFile:     filepath.Join(os.TempDir(), ".bluectl_history"),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Printf("Connected to BlueZ, adapter %s. Type 'help' for commands.\n", sh.sess.Adapter())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return sh.quit()
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		if cmd == "exit" || cmd == "quit" || cmd == "q" {
			return sh.quit()
		}
		if err := sh.dispatch(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		}
	}
}

func (sh *shell) dispatch(cmd string, args []string) error {
	switch cmd {
	case "help", "?":
		sh.printHelp()
		return nil
	case "scan":
		return sh.cmdScan(args)
	case "devices", "list", "ls":
		return sh.cmdDevices(args)
	case "connect", "c":
		return sh.cmdConnect(args)
	case "disconnect", "d":
		return sh.sess.Disconnect()
	case "forget":
		return sh.cmdForget(args)
	case "chars":
		return displayCharacteristics(sh.sess.Characteristics(), "table")
	case "read", "r":
		return sh.cmdRead(args)
	case "write", "w":
		return sh.cmdWrite(args)
	case "notify", "n":
		return sh.cmdNotify(args)
	case "stop":
		return sh.cmdStop(args)
	case "status":
		sh.printStatus()
		return nil
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

func (sh *shell) cmdScan(args []string) error {
	duration := sh.cfg.ScanDuration
	if len(args) > 0 {
		seconds, err := strconv.Atoi(args[0])
		if err != nil || seconds <= 0 {
			return fmt.Errorf("scan [seconds]: invalid duration %q", args[0])
		}
		duration = time.Duration(seconds) * time.Second
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	progress := NewCountdownProgressPrinter("Scanning for BLE devices", duration)
	progress.Start()
	err := sh.sess.Scan(ctx, duration)
	progress.Stop()
	if err != nil {
		return err
	}
	return displayDevices(sh.sess.Devices(""), "table")
}

func (sh *shell) cmdDevices(args []string) error {
	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}
	devices := sh.sess.Devices(filter)
	if len(devices) == 0 && filter == "" {
		fmt.Println("No devices found. Run scan first.")
		return nil
	}
	return displayDevices(devices, "table")
}

func (sh *shell) cmdConnect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("connect <device-path>")
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if err := sh.sess.Connect(ctx, dbus.ObjectPath(args[0])); err != nil {
		return err
	}
	fmt.Printf("Connected. %d characteristics resolved.\n", len(sh.sess.Characteristics()))
	return nil
}

func (sh *shell) cmdForget(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("forget <device-path>")
	}
	return sh.sess.Forget(dbus.ObjectPath(args[0]))
}

func (sh *shell) cmdRead(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("read <uuid>")
	}
	uuid, err := expandUUID(args[0])
	if err != nil {
		return err
	}
	data, err := sh.sess.Read(uuid)
	if err != nil {
		return err
	}
	fmt.Printf("Read from %s: %s\n", uuid, hexDump(data))
	return nil
}

func (sh *shell) cmdWrite(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("write <uuid> <hex-bytes>...")
	}
	uuid, err := expandUUID(args[0])
	if err != nil {
		return err
	}
	data, err := parseHexBytes(args[1:])
	if err != nil {
		return err
	}
	if err := sh.sess.Write(uuid, data); err != nil {
		return err
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), uuid)
	return nil
}

func (sh *shell) cmdNotify(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("notify <uuid>")
	}
	uuid, err := expandUUID(args[0])
	if err != nil {
		return err
	}
	sub, err := sh.sess.Subscribe(uuid)
	if err != nil {
		return err
	}

	// Printer lives until the subscription channel closes, whether by
	// 'stop', disconnect, or shell exit.
	go func() {
		tag := color.YellowString("[NOTIFY %s]", sub.UUID())
		for n := range sub.C() {
			fmt.Printf("\n%s %s\n", tag, hexDump(n.Value))
		}
	}()

	fmt.Printf("Notifications enabled for %s\n", uuid)
	return nil
}

func (sh *shell) cmdStop(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("stop <uuid>")
	}
	uuid, err := expandUUID(args[0])
	if err != nil {
		return err
	}
	if err := sh.sess.Unsubscribe(uuid); err != nil {
		return err
	}
	fmt.Printf("Notifications disabled for %s\n", uuid)
	return nil
}

func (sh *shell) printStatus() {
	if connected := sh.sess.Connected(); connected != "" {
		fmt.Printf("Connected to %s (%d characteristics)\n", connected, len(sh.sess.Characteristics()))
	} else {
		fmt.Println("Not connected")
	}
	fmt.Printf("Adapter: %s, %d devices in registry\n", sh.sess.Adapter(), len(sh.sess.Devices("")))
}

func (sh *shell) quit() error {
	if sh.sess.Connected() != "" {
		if err := sh.sess.Disconnect(); err != nil {
			sh.logger.WithError(err).Warn("Disconnect on exit failed")
		}
	}
	fmt.Println("Exiting...")
	return nil
}

func (sh *shell) printHelp() {
	fmt.Println(`
Session commands:
  scan [seconds]              - Scan for devices (default duration from config)
  devices [filter]            - List discovered devices; filter matches service UUIDs
  connect <device-path>       - Connect and resolve GATT characteristics
  disconnect                  - Disconnect the current device
  forget <device-path>        - Remove a device from the adapter

Characteristics:
  chars                       - List resolved characteristics
  read <uuid>                 - Read a characteristic value
  write <uuid> <hex bytes>    - Write hex bytes (e.g. write 2a39 01 02)
  notify <uuid>               - Enable value-change notifications
  stop <uuid>                 - Disable notifications

General:
  status                      - Show session status
  help                        - Show this help
  exit                        - Leave the shell`)
}
