//go:build unix

package repo

import "syscall"

// tryLock attempts the exclusive lock without blocking.
func (l *writeLock) tryLock() error {
	return syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// unlock drops the exclusive lock.
func (l *writeLock) unlock() {
	if l.file != nil {
		syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	}
}
