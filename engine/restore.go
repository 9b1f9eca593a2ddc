package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// restore writes the decompressed dump back onto the device. The dump is
// opened first so a bad dump never touches the device.
func (s *session) restore(ctx context.Context) (res *Result, err error) {
	res = s.newResult(OpRestore)

	dmp, err := s.engine.dumps.OpenRead(s.cfg.DumpPath)
	if err != nil {
		slog.Error("Failed to open dump", "error", err)
		return nil, fmt.Errorf("failed to open dump: %w", err)
	}
	defer dmp.Close()

	dev, err := s.engine.devices.OpenWrite(s.cfg.DevicePath)
	if err != nil {
		slog.Error("Failed to open device", "error", err)
		return nil, fmt.Errorf("failed to open device: %w", err)
	}
	defer func() {
		if cerr := dev.Close(); cerr != nil && err == nil {
			res, err = nil, fmt.Errorf("failed to close device: %w", cerr)
		}
	}()

	size, err := dev.Size()
	if err != nil {
		slog.Error("Failed to size device", "error", err)
		return nil, fmt.Errorf("failed to size device: %w", err)
	}

	blocks := blockCount(size, s.cfg.BlockSize)
	res.DeviceSize = size
	res.DumpSize = dmp.CompressedSize()
	res.Blocks = blocks

	slog.Debug("Sized device for restore",
		"session", s.id,
		"device_size", size,
		"blocks", blocks,
		"sync_each_write", s.cfg.SyncEachWrite,
	)

	buf := make([]byte, s.cfg.BlockSize)

	for i := int64(0); i < blocks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("restore interrupted: %w", err)
		}

		n, err := readBlock(dmp, buf[:blockLen(size, s.cfg.BlockSize, i)])
		if err != nil {
			slog.Error("Failed to read dump block", "block", i, "error", err)
			return nil, fmt.Errorf("failed to read dump block %d: %w", i, err)
		}
		if n == 0 {
			slog.Warn("Dump ended early", "session", s.id, "block", i, "blocks", blocks)
			res.Truncated = true
			break
		}

		res.BytesRead += int64(n)
		s.emit(OpRestore, PhaseRead, i, blocks, res.BytesRead)

		if _, err := dev.Write(buf[:n]); err != nil {
			slog.Error("Failed to write device block", "block", i, "error", err)
			return nil, fmt.Errorf("failed to write device block %d: %w", i, err)
		}

		if s.cfg.SyncEachWrite {
			if err := dev.Sync(); err != nil {
				slog.Error("Failed to sync device", "block", i, "error", err)
				return nil, fmt.Errorf("failed to sync device after block %d: %w", i, err)
			}
		}

		res.BytesWritten += int64(n)
		res.BlocksDone = i + 1
		s.emit(OpRestore, PhaseWrite, i, blocks, res.BytesWritten)
	}

	if err := assertDrained(dmp, buf, "dump"); err != nil {
		return nil, err
	}

	slog.Info("Restore complete",
		"session", s.id,
		"blocks", res.BlocksDone,
		"bytes", res.BytesWritten,
		"truncated", res.Truncated,
	)

	return res, nil
}
