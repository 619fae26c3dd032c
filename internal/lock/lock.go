// Package lock implements ax's single-instance guard: a PID file under the
// cache root (never /tmp, which is world-writable) that detects both a
// genuinely running sibling instance and a stale file left by a process
// that died or whose PID got recycled by something else entirely.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/Manpreet113/ax/internal/errdefs"
)

const fileName = "ax.lock"

// Lock represents a held single-instance lock: the PID file on disk plus
// an advisory flock held on its descriptor until Release. Acquire judges
// an existing file stale from its PID and /proc/<pid>/comm only; it does
// not test that file's flock.
type Lock struct {
	path string
	f    *os.File
}

// Acquire creates <cacheRoot>/ax.lock, refusing if another live ax process
// already owns it. A file naming a PID that no longer exists, or one that
// exists but isn't ax (a recycled PID), is treated as stale and replaced.
func Acquire(cacheRoot string) (*Lock, error) {
	if err := os.MkdirAll(cacheRoot, 0o755); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrTypeEnv, "", err)
	}
	path := filepath.Join(cacheRoot, fileName)

	if data, err := os.ReadFile(path); err == nil {
		pid, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr == nil && pidIsAx(pid) {
			return nil, errdefs.Newf(errdefs.ErrTypeLockHeld, "another ax instance is already running (pid %d)", pid)
		}
		// Stale or corrupt: remove and retry once.
		_ = os.Remove(path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errdefs.New(errdefs.ErrTypeLockHeld, "another ax instance is already running")
		}
		return nil, errdefs.Wrap(errdefs.ErrTypeEnv, "", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, errdefs.Wrap(errdefs.ErrTypeLockHeld, "", err)
	}

	if _, err := fmt.Fprintf(f, "%d", os.Getpid()); err != nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		_ = os.Remove(path)
		return nil, errdefs.Wrap(errdefs.ErrTypeEnv, "", err)
	}

	return &Lock{path: path, f: f}, nil
}

// Release drops the advisory flock, closes the descriptor, and removes
// the lock file. Safe to call once; idempotent on ENOENT.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if l.f != nil {
		_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
		_ = l.f.Close()
	}
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func pidIsAx(pid int) bool {
	if pid <= 0 {
		return false
	}
	commPath := fmt.Sprintf("/proc/%d/comm", pid)
	data, err := os.ReadFile(commPath)
	if err != nil {
		// /proc/<pid> absent entirely: process is gone.
		return false
	}
	comm := strings.TrimSpace(string(data))
	return comm == "ax"
}
