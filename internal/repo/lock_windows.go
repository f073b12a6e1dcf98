//go:build windows

package repo

import "golang.org/x/sys/windows"

// tryLock attempts the exclusive lock without blocking. LockFileEx
// with FAIL_IMMEDIATELY locks one byte at offset zero.
func (l *writeLock) tryLock() error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(
		windows.Handle(l.file.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, ol,
	)
}

// unlock drops the exclusive lock.
func (l *writeLock) unlock() {
	if l.file != nil {
		ol := new(windows.Overlapped)
		windows.UnlockFileEx(windows.Handle(l.file.Fd()), 0, 1, 0, ol)
	}
}
