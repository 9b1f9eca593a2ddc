//go:build !windows

package glock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireForDeviceNamesLockAfterDevice(t *testing.T) {
	l, err := AcquireForDevice("/dev/diskdump-test0")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer l.Release()

	want := filepath.Join(os.TempDir(), "diskdump-dev-diskdump-test0.lock")
	if l.path != want {
		t.Fatalf("lock path = %q, want %q", l.path, want)
	}
}

func TestAcquireConflictsWhileHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "diskdump-dev-fake0.lock")

	l, err := AcquireAtPath(lockPath)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := AcquireAtPath(lockPath); err == nil {
		t.Fatalf("second acquire succeeded while the lock was held")
	} else if !strings.Contains(err.Error(), lockPath) {
		t.Fatalf("conflict error does not name the lock file: %v", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	// Once released, the same path must be acquirable again.
	l2, err := AcquireAtPath(lockPath)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	if err := l2.Release(); err != nil {
		t.Fatalf("release after reacquire: %v", err)
	}
}

func TestReleaseRemovesLockFile(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "diskdump-dev-fake1.lock")

	l, err := AcquireAtPath(lockPath)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if !strings.Contains(string(data), "pid=") {
		t.Fatalf("lock file has no pid metadata: %q", data)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Fatalf("lock file still present after release: %v", err)
	}
}

func TestReleaseNilIsSafe(t *testing.T) {
	var l *DeviceLock
	if err := l.Release(); err != nil {
		t.Fatalf("releasing a nil lock: %v", err)
	}
}
