package engine

import (
	"fmt"
	"log/slog"
)

// info reports the device size (by end-seek) and the dump's compressed size
// (from file metadata). No block iteration, no data transfer.
func (s *session) info() (*Result, error) {
	res := s.newResult(OpInfo)

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

	res.DeviceSize = size
	res.DumpSize = dmp.CompressedSize()
	res.Blocks = blockCount(size, s.cfg.BlockSize)

	slog.Debug("Collected sizes",
		"session", s.id,
		"device_size", res.DeviceSize,
		"dump_compressed_size", res.DumpSize,
		"blocks", res.Blocks,
	)

	return res, nil
}
