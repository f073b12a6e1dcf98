package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	lockFileName   = "repo.lock"
	lockTimeout    = 500 * time.Millisecond
	initialBackoff = 5 * time.Millisecond
	maxBackoff     = 50 * time.Millisecond
)

// writeLock serializes repository transactions across processes using
// an OS file lock on the control directory. The lock is released
// automatically when the process exits, including on crashes. The
// workspace path registry deliberately takes no lock of its own; this
// is the higher-level coordination it relies on.
type writeLock struct {
	path string
	file *os.File
}

func newWriteLock(controlDir string) *writeLock {
	return &writeLock{path: filepath.Join(controlDir, lockFileName)}
}

// acquire takes the exclusive lock, retrying with bounded backoff
// until timeout. The error on timeout names the current holder.
func (l *writeLock) acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	l.file = f

	deadline := time.Now().Add(timeout)
	backoff := initialBackoff
	for {
		if err := l.tryLock(); err == nil {
			l.writeHolder()
			return nil
		}

		if time.Now().After(deadline) {
			holder := l.readHolder()
			l.file.Close()
			l.file = nil
			return fmt.Errorf("repository lock timeout after %v (holder: %s)", timeout, holder)
		}

		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

// release drops the lock. Safe to call when the lock is not held.
func (l *writeLock) release() {
	if l.file == nil {
		return
	}
	l.file.Truncate(0)
	l.unlock()
	l.file.Close()
	l.file = nil
}

// writeHolder records this process in the lock file for diagnostics.
func (l *writeLock) writeHolder() {
	if l.file == nil {
		return
	}
	l.file.Truncate(0)
	l.file.Seek(0, 0)
	fmt.Fprintf(l.file, "pid:%d\ntime:%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	l.file.Sync()
}

// readHolder reports who holds the lock, flagging dead holders.
func (l *writeLock) readHolder() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "unknown"
	}

	var pid, since string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		switch {
		case strings.HasPrefix(line, "pid:"):
			pid = strings.TrimPrefix(line, "pid:")
		case strings.HasPrefix(line, "time:"):
			since = strings.TrimPrefix(line, "time:")
		}
	}
	if pid == "" {
		return "unknown"
	}
	return fmt.Sprintf("pid:%s since %s", pid, since)
}
