package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/bluectl/internal/bluez"
	"github.com/srg/bluectl/internal/session"
	"github.com/srg/bluectl/pkg/config"
)

// withSession dials the system bus, resolves the adapter into a fresh
// session, runs fn, and tears everything down afterwards. Every
// subcommand goes through here so the lifecycle lives in one place.
func withSession(cmd *cobra.Command, fn func(*session.Session, *config.Config, *logrus.Logger) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	bus, err := bluez.SystemBus()
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.WithError(err).Debug("Closing bus connection failed")
		}
	}()

	opts := session.DefaultOptions()
	opts.ConnectTimeout = cfg.ConnectTimeout
	opts.DiscoverTimeout = cfg.DiscoverTimeout

	sess, err := session.New(bus, logger, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(sess, cfg, logger)
}

// withConnectedDevice connects to the device for the duration of fn,
// disconnecting afterwards even when fn fails.
func withConnectedDevice(ctx context.Context, sess *session.Session, logger *logrus.Logger, device dbus.ObjectPath, fn func() error) error {
	if err := sess.Connect(ctx, device); err != nil {
		return err
	}
	defer func() {
		if err := sess.Disconnect(); err != nil {
			logger.WithError(err).Error("failed to disconnect device")
		}
	}()
	return fn()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
