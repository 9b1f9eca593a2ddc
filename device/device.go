//go:build !windows

// Package device provides sequential access to raw block devices.
package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// Mode selects the direction a device is opened for.
type Mode int

const (
	// ReadOnly opens the device for imaging and verification reads.
	ReadOnly Mode = iota
	// WriteOnly opens the device for restore writes.
	WriteOnly
)

func (m Mode) String() string {
	if m == WriteOnly {
		return "write-only"
	}
	return "read-only"
}

// ErrNotBlockDevice is returned when a path does not name a block-special node.
var ErrNotBlockDevice = errors.New("not a block device")

// Device is an open handle to a block-special device. Reads and writes are
// sequential from offset zero, like the *os.File it wraps.
type Device struct {
	f    *os.File
	path string
}

// Open opens the block device at path for the given mode. The node kind is
// checked before any size computation or I/O; a non-block node fails with
// ErrNotBlockDevice and the descriptor is closed on the way out.
func Open(path string, mode Mode) (*Device, error) {
	flag := os.O_RDONLY
	if mode == WriteOnly {
		flag = os.O_WRONLY
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %s: %w", path, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat device %s: %w", path, err)
	}

	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		_ = f.Close()
		slog.Error("Device is not a block device", "path", path)
		return nil, fmt.Errorf("device %s: %w", path, ErrNotBlockDevice)
	}

	slog.Debug("Opened device", "path", path, "mode", mode)

	return &Device{f: f, path: path}, nil
}

// Size reports the device size by seeking to the end and back to the start.
// Filesystem metadata is not trusted for special files.
func (d *Device) Size() (int64, error) {
	size, err := d.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to seek device %s to end: %w", d.path, err)
	}

	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek device %s back to start: %w", d.path, err)
	}

	return size, nil
}

func (d *Device) Read(p []byte) (int, error) {
	return d.f.Read(p)
}

func (d *Device) Write(p []byte) (int, error) {
	return d.f.Write(p)
}

// Sync flushes written data down to the underlying device.
func (d *Device) Sync() error {
	return d.f.Sync()
}

// Path returns the device node path the handle was opened with.
func (d *Device) Path() string {
	return d.path
}

func (d *Device) Close() error {
	return d.f.Close()
}
