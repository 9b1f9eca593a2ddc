// Package units provides constants for common byte sizes.
package units

// Sizes are int64 because device sizes come from Seek.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)
