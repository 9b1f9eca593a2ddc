package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
)

// check compares the device against the decompressed dump block by block,
// stopping at the first difference. The device size governs the iteration;
// the two sides are read independently, once each per index.
func (s *session) check(ctx context.Context) (*Result, error) {
	res := s.newResult(OpCheck)

	dev, err := s.engine.devices.OpenRead(s.cfg.DevicePath)
	if err != nil {
		slog.Error("Failed to open device", "error", err)
		return nil, fmt.Errorf("failed to open device: %w", err)
	}
	defer dev.Close()

	dmp, err := s.engine.dumps.OpenRead(s.cfg.DumpPath)
	if err != nil {
		slog.Error("Failed to open dump", "error", err)
		return nil, fmt.Errorf("failed to open dump: %w", err)
	}
	defer dmp.Close()

	size, err := dev.Size()
	if err != nil {
		slog.Error("Failed to size device", "error", err)
		return nil, fmt.Errorf("failed to size device: %w", err)
	}

	blocks := blockCount(size, s.cfg.BlockSize)
	res.DeviceSize = size
	res.DumpSize = dmp.CompressedSize()
	res.Blocks = blocks

	slog.Debug("Sized device for check", "session", s.id, "device_size", size, "blocks", blocks)

	// An empty device has nothing to diverge, so it verifies trivially.
	verified := true

	devBuf := make([]byte, s.cfg.BlockSize)
	dmpBuf := make([]byte, s.cfg.BlockSize)

	for i := int64(0); i < blocks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("check interrupted: %w", err)
		}

		n := blockLen(size, s.cfg.BlockSize, i)

		dn, err := readBlock(dev, devBuf[:n])
		if err != nil {
			slog.Error("Failed to read device block", "block", i, "error", err)
			return nil, fmt.Errorf("failed to read device block %d: %w", i, err)
		}

		res.BytesRead += int64(dn)
		s.emit(OpCheck, PhaseRead, i, blocks, res.BytesRead)

		bn, err := readBlock(dmp, dmpBuf[:n])
		if err != nil {
			slog.Error("Failed to read dump block", "block", i, "error", err)
			return nil, fmt.Errorf("failed to read dump block %d: %w", i, err)
		}

		match := bytes.Equal(devBuf[:dn], dmpBuf[:bn])
		res.BlocksDone = i + 1
		s.emit(OpCheck, PhaseCompare, i, blocks, res.BytesRead)

		if !match {
			verified = false
			res.MismatchBlock = i
			slog.Warn("Blocks differ",
				"session", s.id,
				"block", i,
				"device_bytes", dn,
				"dump_bytes", bn,
			)
			break
		}
	}

	res.Verified = &verified

	slog.Info("Check complete",
		"session", s.id,
		"verified", verified,
		"blocks", res.BlocksDone,
		"mismatch_block", res.MismatchBlock,
	)

	return res, nil
}
