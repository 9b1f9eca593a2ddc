//go:build !windows

package glock

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// DeviceLock serializes sessions touching a single block device using a
// filesystem lock file. On Unix-like systems this uses flock with an
// exclusive, non-blocking lock.
type DeviceLock struct {
	path string
	file *os.File
}

// AcquireForDevice attempts to acquire an exclusive lock for the given
// device path. The lock file lives in the system temp dir, named after the
// device, so two processes working on different devices never contend.
func AcquireForDevice(devicePath string) (*DeviceLock, error) {
	name := strings.Trim(strings.ReplaceAll(devicePath, "/", "-"), "-")
	lockPath := filepath.Join(os.TempDir(), fmt.Sprintf("diskdump-%s.lock", name))
	return AcquireAtPath(lockPath)
}

// AcquireAtPath attempts to acquire a device lock at a specific lock file path.
func AcquireAtPath(lockPath string) (*DeviceLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	// Try to acquire exclusive non-blocking lock
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("another session appears to be using this device (lock held at %s)", lockPath)
	}

	// Write some metadata (pid, start time) for observability. Best-effort.
	_ = f.Truncate(0)
	_, _ = f.WriteAt([]byte(fmt.Sprintf("pid=%d\nstart=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))), 0)
	_ = f.Sync()

	slog.Debug("Acquired device lock", "path", lockPath)

	return &DeviceLock{path: lockPath, file: f}, nil
}

// Release releases the device lock and removes the lock file.
func (l *DeviceLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	slog.Debug("Releasing device lock", "path", l.path)
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	// Best-effort removal. It's okay if this fails; the lock is advisory via flock.
	_ = os.Remove(l.path)
	return err
}
