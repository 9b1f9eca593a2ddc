package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// backup images the device into a freshly created dump, one block at a time.
func (s *session) backup(ctx context.Context) (*Result, error) {
	res := s.newResult(OpBackup)

	dev, err := s.engine.devices.OpenRead(s.cfg.DevicePath)
	if err != nil {
		slog.Error("Failed to open device", "error", err)
		return nil, fmt.Errorf("failed to open device: %w", err)
	}
	defer dev.Close()

	dmp, err := s.engine.dumps.Create(s.cfg.DumpPath, s.cfg.Level)
	if err != nil {
		slog.Error("Failed to create dump", "error", err)
		return nil, fmt.Errorf("failed to create dump: %w", err)
	}
	defer func() { _ = dmp.Close() }()

	size, err := dev.Size()
	if err != nil {
		slog.Error("Failed to size device", "error", err)
		return nil, fmt.Errorf("failed to size device: %w", err)
	}

	blocks := blockCount(size, s.cfg.BlockSize)
	res.DeviceSize = size
	res.Blocks = blocks

	slog.Debug("Sized device for backup", "session", s.id, "device_size", size, "blocks", blocks)

	buf := make([]byte, s.cfg.BlockSize)

	for i := int64(0); i < blocks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backup interrupted: %w", err)
		}

		n, err := readBlock(dev, buf[:blockLen(size, s.cfg.BlockSize, i)])
		if err != nil {
			slog.Error("Failed to read device block", "block", i, "error", err)
			return nil, fmt.Errorf("failed to read device block %d: %w", i, err)
		}
		if n == 0 {
			slog.Warn("Device ended early", "session", s.id, "block", i, "blocks", blocks)
			res.Truncated = true
			break
		}

		res.BytesRead += int64(n)
		s.emit(OpBackup, PhaseRead, i, blocks, res.BytesRead)

		if _, err := dmp.Write(buf[:n]); err != nil {
			slog.Error("Failed to write dump block", "block", i, "error", err)
			return nil, fmt.Errorf("failed to write dump block %d: %w", i, err)
		}

		res.BytesWritten += int64(n)
		res.BlocksDone = i + 1
		s.emit(OpBackup, PhaseWrite, i, blocks, res.BytesWritten)
	}

	if err := assertDrained(dev, buf, "device"); err != nil {
		return nil, err
	}

	// Close before reading the compressed size so the gzip trailer is
	// counted. The deferred close becomes a no-op.
	if err := dmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close dump: %w", err)
	}
	res.DumpSize = dmp.CompressedSize()

	slog.Info("Backup complete",
		"session", s.id,
		"blocks", res.BlocksDone,
		"bytes", res.BytesRead,
		"compressed_bytes", res.DumpSize,
		"truncated", res.Truncated,
	)

	return res, nil
}
