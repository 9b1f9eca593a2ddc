package config

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Transfer controls how blocks move between the device and the dump.
type Transfer struct {
	// BlockSize is a human-readable size such as "4MiB" or "512KiB".
	BlockSize string `mapstructure:"block_size"`

	// CompressionLevel is the gzip level, 0 (store) through 9 (best).
	CompressionLevel int `mapstructure:"compression_level"`

	// SyncEachWrite syncs the device after every restored block.
	SyncEachWrite bool `mapstructure:"sync_each_write"`
}

// BlockSizeBytes parses BlockSize into a byte count.
func (t Transfer) BlockSizeBytes() (int64, error) {
	n, err := humanize.ParseBytes(t.BlockSize)
	if err != nil {
		return 0, fmt.Errorf("invalid block_size %q: %w", t.BlockSize, err)
	}
	if n < 1 || n > math.MaxInt64 {
		return 0, fmt.Errorf("block_size %q is out of range", t.BlockSize)
	}
	return int64(n), nil
}
