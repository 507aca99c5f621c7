package snapshot

import (
	"fmt"
	"os"
	"syscall"
)

// fileLock provides cross-process mutual exclusion using flock(2). The lock
// file sits next to the snapshot as "<snapshot>.lock".
type fileLock struct {
	path string
	file *os.File
}

func newFileLock(snapshotPath string) *fileLock {
	return &fileLock{path: snapshotPath + ".lock"}
}

// lock acquires an exclusive lock, blocking until available. The lock file
// is created if it does not exist.
func (fl *fileLock) lock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return nil
}

func (fl *fileLock) unlock() error {
	if fl.file == nil {
		return nil
	}
	f := fl.file
	fl.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("funlock: %w", err)
	}
	return f.Close()
}
