package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diskdump/diskdump/device"
	"github.com/diskdump/diskdump/dump"
	"github.com/diskdump/diskdump/engine"
	"github.com/diskdump/diskdump/glock"
)

// deviceOpener adapts the device package to the engine's endpoint interfaces.
type deviceOpener struct{}

func (deviceOpener) OpenRead(path string) (engine.DeviceReader, error) {
	return device.Open(path, device.ReadOnly)
}

func (deviceOpener) OpenWrite(path string) (engine.DeviceWriter, error) {
	return device.Open(path, device.WriteOnly)
}

// dumpOpener adapts the dump package the same way.
type dumpOpener struct{}

func (dumpOpener) OpenRead(path string) (engine.DumpReader, error) {
	return dump.Open(path)
}

func (dumpOpener) Create(path string, level int) (engine.DumpWriter, error) {
	return dump.Create(path, level)
}

func newEngine() *engine.Engine {
	return engine.New(deviceOpener{}, dumpOpener{})
}

// resolveBlockSize prefers the per-invocation flag over the config file.
func resolveBlockSize(flagValue string) (int64, error) {
	t := cfg.Transfer
	if flagValue != "" {
		t.BlockSize = flagValue
	}
	return t.BlockSizeBytes()
}

// resolveLevel prefers the per-invocation flag over the config file. The
// flag default of -1 means "not given".
func resolveLevel(flagValue int) int {
	if flagValue >= 0 {
		return flagValue
	}
	return cfg.Transfer.CompressionLevel
}

// runTransfer executes one block-iterating operation while holding the
// device lock, with progress rendered off the transfer goroutine.
func runTransfer(ctx context.Context, op engine.Op, ecfg engine.Config) (*engine.Result, error) {
	lock, err := glock.AcquireForDevice(ecfg.DevicePath)
	if err != nil {
		slog.Error("Failed to lock device", "device", ecfg.DevicePath, "error", err)
		return nil, fmt.Errorf("failed to lock device: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("Failed to release device lock", "error", err)
		}
	}()

	r := newRenderer(cfg.Progress.Interval, stderrIsTTY())
	ecfg.Progress = r.Observe

	res, err := newEngine().Run(ctx, op, ecfg)
	r.Close()

	return res, err
}
